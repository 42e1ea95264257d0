// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/poiesic/profilematch"
	"github.com/poiesic/profilematch/config"
	"github.com/poiesic/profilematch/search"
)

var (
	configFile = flag.String("config", "", "YAML configuration file")
	limit      = flag.Int("limit", 5, "maximum number of results")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
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

	query := "machine learning"
	if flag.NArg() > 0 {
		query = strings.Join(flag.Args(), " ")
	}

	results, err := svc.Search(context.Background(), query, search.Options{Limit: *limit})
	if err != nil {
		panic(err)
	}

	fmt.Printf("Found %d hits\n", len(results))
	for i, hit := range results {
		fmt.Printf("%d: '%s' (%s)[%0.3f]\n", i, hit.Profile.Name, hit.Profile.Department, hit.Scores.FinalScore)
	}
}
