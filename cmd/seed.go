package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kozaktomas/face-recall/internal/constants"
	"github.com/kozaktomas/face-recall/internal/database"
	"github.com/kozaktomas/face-recall/internal/people"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Register people from a YAML manifest",
	Long: `Register the people listed in a YAML manifest, uploading each image
and storing the optional embedding exactly as POST /api/addPerson does.

Image paths are resolved relative to the manifest file.

Manifest format:
  pair_id: 7f3c
  people:
    - name: Alice
      relationship: sister
      occupation: nurse
      age: 42
      notes: lives in Brno
      image: images/alice.jpg
      embedding: [0.12, -0.4, 0.33]

Examples:
  face-recall seed --file family.yaml
  face-recall seed --file family.yaml --concurrency 8 --json`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("file", "", "Path to the YAML manifest (required)")
	seedCmd.Flags().Int("concurrency", constants.SeedWorkerPoolSize, "Number of parallel uploads")
	seedCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
	seedCmd.MarkFlagRequired("file")
}

// seedManifest is the YAML document read by the seed command.
type seedManifest struct {
	PairID string       `yaml:"pair_id"`
	People []seedPerson `yaml:"people"`
}

type seedPerson struct {
	Name         string    `yaml:"name"`
	Relationship string    `yaml:"relationship"`
	Occupation   string    `yaml:"occupation"`
	Age          *int      `yaml:"age"`
	Notes        string    `yaml:"notes"`
	Image        string    `yaml:"image"`
	Embedding    []float64 `yaml:"embedding"`
}

// SeedResult represents the result of a seed run
type SeedResult struct {
	Success       bool     `json:"success"`
	PairID        string   `json:"pair_id"`
	Added         int      `json:"added"`
	Errors        int      `json:"errors"`
	Failures      []string `json:"failures,omitempty"`
	DurationMs    int64    `json:"duration_ms"`
	DurationHuman string   `json:"duration_human,omitempty"`
}

// loadSeedManifest parses and checks a manifest. Image paths are made
// absolute against the manifest's directory.
func loadSeedManifest(path string) (*seedManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m seedManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if m.PairID == "" {
		return nil, errors.New("manifest: pair_id is required")
	}
	if len(m.People) == 0 {
		return nil, errors.New("manifest: no people listed")
	}

	base := filepath.Dir(path)
	for i := range m.People {
		p := &m.People[i]
		if p.Image == "" {
			return nil, fmt.Errorf("manifest: person %d (%s) has no image", i+1, p.Name)
		}
		if !filepath.IsAbs(p.Image) {
			p.Image = filepath.Join(base, p.Image)
		}
	}
	return &m, nil
}

// addPersonRequest converts a manifest entry into the API request shape.
// The caller closes the returned file.
func (p seedPerson) addPersonRequest(pairID string) (people.AddPersonRequest, *os.File, error) {
	f, err := os.Open(p.Image)
	if err != nil {
		return people.AddPersonRequest{}, nil, fmt.Errorf("open image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return people.AddPersonRequest{}, nil, fmt.Errorf("stat image: %w", err)
	}

	req := people.AddPersonRequest{
		PairID:       pairID,
		Name:         p.Name,
		Relationship: p.Relationship,
		Occupation:   p.Occupation,
		Notes:        p.Notes,
		Image: &people.ImageFile{
			Filename: filepath.Base(p.Image),
			Size:     info.Size(),
			Content:  f,
		},
	}
	if p.Age != nil {
		req.Age = strconv.Itoa(*p.Age)
	}
	if len(p.Embedding) > 0 {
		raw, err := json.Marshal(p.Embedding)
		if err != nil {
			f.Close()
			return people.AddPersonRequest{}, nil, fmt.Errorf("encode embedding: %w", err)
		}
		req.Embedding = string(raw)
	}
	return req, f, nil
}

// personAdder is the part of people.Service used by seeding.
type personAdder interface {
	AddPerson(ctx context.Context, req people.AddPersonRequest) (*database.Person, error)
}

func runSeed(cmd *cobra.Command, args []string) error {
	path := mustGetString(cmd, "file")
	concurrency := mustGetInt(cmd, "concurrency")
	jsonOutput := mustGetBool(cmd, "json")

	manifest, err := loadSeedManifest(path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !jsonOutput {
		fmt.Printf("Seeding %d people for pair %s\n\n", len(manifest.People), manifest.PairID)
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(manifest.People),
			progressbar.OptionSetDescription("Adding people"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("people"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}

	result := seedPeople(ctx, a.service, manifest, concurrency, func() {
		if bar != nil {
			bar.Add(1)
		}
	})

	if bar != nil {
		fmt.Println()
	}

	if jsonOutput {
		result.DurationHuman = ""
		return outputJSON(result)
	}

	fmt.Println("\nSeed complete!")
	fmt.Printf("  Added:    %d\n", result.Added)
	if result.Errors > 0 {
		fmt.Printf("  Errors:   %d\n", result.Errors)
		for _, f := range result.Failures {
			fmt.Printf("    %s\n", f)
		}
	}
	fmt.Printf("  Duration: %s\n", result.DurationHuman)
	return nil
}

// seedPeople adds every manifest entry with a bounded number of workers.
// Failures are collected, not fatal.
func seedPeople(ctx context.Context, svc personAdder, m *seedManifest, concurrency int, progress func()) SeedResult {
	if concurrency < 1 {
		concurrency = 1
	}
	start := time.Now()

	var added, errorCount int64
	var mu sync.Mutex
	var failures []string
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for _, p := range m.People {
		wg.Add(1)
		go func(p seedPerson) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()
			defer progress()

			err := func() error {
				req, f, err := p.addPersonRequest(m.PairID)
				if err != nil {
					return err
				}
				defer f.Close()
				_, err = svc.AddPerson(ctx, req)
				return err
			}()
			if err != nil {
				atomic.AddInt64(&errorCount, 1)
				mu.Lock()
				failures = append(failures, fmt.Sprintf("%s: %v", p.Name, err))
				mu.Unlock()
				return
			}
			atomic.AddInt64(&added, 1)
		}(p)
	}
	wg.Wait()

	duration := time.Since(start)
	return SeedResult{
		Success:       errorCount == 0,
		PairID:        m.PairID,
		Added:         int(added),
		Errors:        int(errorCount),
		Failures:      failures,
		DurationMs:    duration.Milliseconds(),
		DurationHuman: formatDuration(duration),
	}
}
