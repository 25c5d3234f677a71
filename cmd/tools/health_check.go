package main

import (
	"fmt"
	"log"
	"net/http"
	"time"
)

// Small standalone probe for container healthchecks and local debugging

func main() {
	fmt.Println("CelestialSword Health Check Utility")
	fmt.Println("-----------------------------------")

	healthy, err := checkServiceHealth("http://localhost:8080/health")
	if err != nil {
		log.Fatalf("Health check failed: %v", err)
	}

	if healthy {
		fmt.Println("Service is healthy!")
	} else {
		fmt.Println("Service is NOT healthy!")
	}
}

func checkServiceHealth(url string) (bool, error) {
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK, nil
}
