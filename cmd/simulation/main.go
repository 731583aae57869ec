package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const baseURL = "http://localhost:3000/api/kt/v1/sessions"

// Simplified DTOs for the script

type createSessionResponse struct {
	Data struct {
		ID       string `json:"id"`
		Greeting string `json:"greeting"`
	} `json:"data"`
}

type submitTurnRequest struct {
	Text string `json:"text"`
}

type submitTurnResponse struct {
	Data struct {
		SessionStatus     string `json:"session_status"`
		Question          string `json:"question"`
		ExtractedFacts    int    `json:"extracted_facts"`
		OverallConfidence int    `json:"overall_confidence"`
		Topics            []struct {
			TopicID string `json:"topic_id"`
			Status  string `json:"status"`
			Score   int    `json:"score"`
		} `json:"topics"`
	} `json:"data"`
}

type reportResponse struct {
	Data struct {
		Report string `json:"report"`
	} `json:"data"`
}

func main() {
	fmt.Println("=== KT Session Simulation Client ===")

	sessionID, greeting, err := createSession()
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}
	fmt.Printf("Session Created: %s\n", sessionID)
	fmt.Printf("ASSISTANT: %s\n", greeting)

	turns := []string{
		"The system is the order ingestion service. It validates incoming retail orders and forwards them to fulfillment. It exists because the old monolith could not keep up with peak traffic.",
		"It takes orders as JSON over HTTPS and emits normalized order events to Kafka. It depends on the customer service for address lookups and on Postgres for dedup state. We deploy it on EKS and watch it through Grafana dashboards.",
		"When Kafka is down we buffer to local disk for up to an hour. Duplicate order ids are dropped silently, that's the main edge case. For a stuck consumer the runbook says restart the pod and replay from the last committed offset.",
	}

	for i, text := range turns {
		fmt.Printf("\nUSER (turn %d): %s\n", i, text)

		start := time.Now()
		res, err := submitTurn(sessionID, text)
		elapsed := time.Since(start)

		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}

		fmt.Printf("ASSISTANT (%.1fs): %s\n", elapsed.Seconds(), res.Data.Question)
		fmt.Printf("  facts extracted: %d, overall confidence: %d%%, session: %s\n",
			res.Data.ExtractedFacts, res.Data.OverallConfidence, res.Data.SessionStatus)
		for _, topic := range res.Data.Topics {
			fmt.Printf("  %s: %d%% (%s)\n", topic.TopicID, topic.Score, topic.Status)
		}
	}

	fmt.Println("\nFetching report...")
	report, err := getReport(sessionID)
	if err != nil {
		log.Fatalf("Failed to get report: %v", err)
	}
	fmt.Println("=== REPORT ===")
	fmt.Println(report)
}

func createSession() (string, string, error) {
	resp, err := http.Post(baseURL, "application/json", nil)
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	var out createSessionResponse
	if err := decode(resp, &out); err != nil {
		return "", "", err
	}
	return out.Data.ID, out.Data.Greeting, nil
}

func submitTurn(sessionID, text string) (*submitTurnResponse, error) {
	body, _ := json.Marshal(submitTurnRequest{Text: text})
	resp, err := http.Post(baseURL+"/"+sessionID+"/turns", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var out submitTurnResponse
	if err := decode(resp, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func getReport(sessionID string) (string, error) {
	resp, err := http.Get(baseURL + "/" + sessionID + "/report")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out reportResponse
	if err := decode(resp, &out); err != nil {
		return "", err
	}
	return out.Data.Report, nil
}

func decode(resp *http.Response, v interface{}) error {
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, v)
}
