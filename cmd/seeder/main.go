package main

import (
	"context"
	"encoding/json"
	"flag"
	"iter"
	"log/slog"
	"os"
	"slices"

	"github.com/poiesic/profilematch"
	"github.com/poiesic/profilematch/config"
	"github.com/poiesic/profilematch/core"
)

func ptr[T any](v T) *T { return &v }

var sampleProfiles = []*core.Profile{
	{
		ProfileID:  "seed-chen",
		Name:       "Dr. Sarah Chen",
		Title:      "Associate Professor",
		Department: "Computer Science",
		ProfileURL: "https://example.edu/faculty/chen",
		Summary:    "Machine learning for protein structure prediction and computational biology.",
		Keywords:   []string{"machine learning", "protein folding", "computational biology", "deep learning"},
		ActivitySignals: &core.ActivitySignals{
			RecentPublications: []string{"Graph networks for protein contact maps (2024)"},
			Hiring:             ptr(true),
		},
	},
	{
		ProfileID:  "seed-rodriguez",
		Name:       "Prof. Miguel Rodriguez",
		Title:      "Professor",
		Department: "Electrical Engineering",
		ProfileURL: "https://example.edu/faculty/rodriguez",
		Summary:    "Low-power embedded systems and energy harvesting for wireless sensor networks.",
		Keywords:   []string{"embedded systems", "energy harvesting", "sensor networks"},
		ActivitySignals: &core.ActivitySignals{
			NewsMentions: []string{"Campus sensor grid cuts energy use"},
			LastUpdated:  "2024-09-01",
		},
	},
	{
		ProfileID:  "seed-watson",
		Name:       "Dr. Emily Watson",
		Title:      "Assistant Professor",
		Department: "Neuroscience",
		ProfileURL: "https://example.edu/faculty/watson",
		Summary:    "Computational models of memory consolidation and neural plasticity.",
		Keywords:   []string{"neuroscience", "memory", "computational modeling", "plasticity"},
	},
}

var (
	seedFileName = flag.String("src", "", "JSON file holding an array of profiles")
	configFile   = flag.String("config", "", "YAML configuration file")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// profilesFromFile returns an iterator over the profiles in a JSON file.
func profilesFromFile(filename string) (iter.Seq[*core.Profile], error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var profiles []*core.Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	return slices.Values(profiles), nil
}

// seedBatched embeds and stores profiles in batches.
func seedBatched(ctx context.Context, svc *profilematch.Service, source iter.Seq[*core.Profile], batchSize int) error {
	batch := make([]*core.Profile, 0, batchSize)

	flush := func() error {
		texts := make([]string, len(batch))
		for i, p := range batch {
			texts[i] = p.EmbeddingText()
		}
		vectors, _, err := svc.Embed(ctx, texts, true)
		if err != nil {
			return err
		}
		for i, p := range batch {
			id, created, err := svc.ProfileRepository().InsertProfile(ctx, p, vectors[i])
			if err != nil {
				return err
			}
			slog.Info("seeded profile", "name", p.Name, "id", id, "created", created)
		}
		batch = batch[:0]
		return nil
	}

	for p := range source {
		if err := core.ValidateProfile(p); err != nil {
			slog.Warn("skipping invalid profile", "err", err)
			continue
		}
		batch = append(batch, p)
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if len(batch) > 0 {
		return flush()
	}
	return nil
}

func main() {
	cfg, err := config.Load(*configFile, ".env")
	if err != nil {
		panic(err)
	}
	svc, err := profilematch.NewService(cfg)
	if err != nil {
		panic(err)
	}
	defer svc.Close()

	ctx := context.Background()
	if err := svc.ProfileRepository().InitializeSchema(ctx); err != nil {
		panic(err)
	}

	var source iter.Seq[*core.Profile]
	if *seedFileName != "" {
		source, err = profilesFromFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		source = slices.Values(sampleProfiles)
	}

	if err := seedBatched(ctx, svc, source, 5); err != nil {
		panic(err)
	}
}
