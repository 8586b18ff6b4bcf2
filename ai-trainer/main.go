package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// The trainer drives a running backend over its HTTP API: kick off a GA
// run, poll progress, then save the exported champion profile.

type trainer struct {
	client       *http.Client
	baseURL      string
	pollInterval time.Duration
	outPath      string
}

type gaStartRequest struct {
	PopulationSize int     `json:"population_size"`
	Generations    int     `json:"generations"`
	MutationRate   float64 `json:"mutation_rate"`
	Seed           uint64  `json:"seed"`
}

type gaStatusResponse struct {
	Running  bool `json:"running"`
	Progress []struct {
		Generation  int     `json:"generation"`
		BestFitness float64 `json:"best_fitness"`
		AvgFitness  float64 `json:"avg_fitness"`
	} `json:"progress"`
	HasChampion bool `json:"has_champion"`
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	baseURL := os.Getenv("BACKEND_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	outPath := os.Getenv("PROFILE_OUT")
	if outPath == "" {
		outPath = "profile.json"
	}

	t := &trainer{
		client:       &http.Client{Timeout: 30 * time.Second},
		baseURL:      baseURL,
		pollInterval: 2 * time.Second,
		outPath:      outPath,
	}
	if err := t.run(); err != nil {
		log.Fatal().Err(err).Msg("training failed")
	}
}

func (t *trainer) run() error {
	request := gaStartRequest{
		PopulationSize: 8,
		Generations:    5,
		MutationRate:   0.3,
		Seed:           uint64(time.Now().UnixNano()),
	}
	if err := t.postJSON("/api/ga/start", request, nil); err != nil {
		return fmt.Errorf("start ga: %w", err)
	}
	log.Info().Int("population", request.PopulationSize).Int("generations", request.Generations).Msg("ga started")

	lastReported := -1
	for {
		time.Sleep(t.pollInterval)
		var status gaStatusResponse
		if err := t.getJSON("/api/ga/status", &status); err != nil {
			return fmt.Errorf("poll ga status: %w", err)
		}
		for _, p := range status.Progress {
			if p.Generation > lastReported {
				log.Info().
					Int("generation", p.Generation).
					Float64("best", p.BestFitness).
					Float64("avg", p.AvgFitness).
					Msg("generation done")
				lastReported = p.Generation
			}
		}
		if !status.Running {
			if !status.HasChampion {
				return fmt.Errorf("ga finished without a champion")
			}
			break
		}
	}

	response, err := t.client.Get(t.baseURL + "/api/ga/export")
	if err != nil {
		return fmt.Errorf("fetch export: %w", err)
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch export: status %d", response.StatusCode)
	}
	var pretty bytes.Buffer
	var raw json.RawMessage
	if err := json.NewDecoder(response.Body).Decode(&raw); err != nil {
		return fmt.Errorf("decode export: %w", err)
	}
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return fmt.Errorf("format export: %w", err)
	}
	if err := os.WriteFile(t.outPath, pretty.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	log.Info().Str("path", t.outPath).Msg("champion profile saved")
	return nil
}

func (t *trainer) postJSON(path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	response, err := t.client.Post(t.baseURL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode >= 300 {
		return fmt.Errorf("status %d", response.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(response.Body).Decode(out)
	}
	return nil
}

func (t *trainer) getJSON(path string, out any) error {
	response, err := t.client.Get(t.baseURL + path)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", response.StatusCode)
	}
	return json.NewDecoder(response.Body).Decode(out)
}
