package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"strengthlab/fitness-app/internal/config"
	"strengthlab/fitness-app/internal/domain"
	"strengthlab/fitness-app/internal/generation"
	"strengthlab/fitness-app/internal/notify"
	"strengthlab/fitness-app/internal/store"
)

// plangen is the command-line slice of the workout generator: it plays the
// role of the app's generation screen. Flags are the form fields, the local
// store is the device cache, and notifications land in the process log.
func main() {
	var (
		prompt      = flag.String("prompt", "", "what the workout should focus on")
		weather     = flag.String("weather", "", "optional weather context")
		level       = flag.String("level", "", "fitness level (beginner, intermediate, advanced)")
		prescribed  = flag.String("prescribed", "", "exercises that must be included")
		injuries    = flag.String("injuries", "", "injuries or limitations to respect")
		equipment   = flag.String("equipment", "", "comma-separated equipment exercise names")
		days        = flag.Int("days", 3, "training days per cycle (1-7)")
		cycles      = flag.Int("cycles", 1, "number of cycles (1-4)")
		token       = flag.String("token", os.Getenv("PLANGEN_TOKEN"), "bearer token for the API")
		endpointArg = flag.String("endpoint", "", "override the generation endpoint base URL")
		storeArg    = flag.String("store", "", "override the local store directory")
		show        = flag.Bool("show", false, "print the stored workout and exit")
		clear       = flag.Bool("clear", false, "clear the stored workout and exit")
		timeout     = flag.Duration("timeout", 2*time.Minute, "request timeout")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	storeDir := cfg.Client.StoreDir
	if *storeArg != "" {
		storeDir = *storeArg
	}
	if storeDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("FATAL: Could not resolve home directory: %v", err)
		}
		storeDir = home + "/.plangen"
	}

	workoutStore, err := store.New(storeDir)
	if err != nil {
		log.Fatalf("FATAL: Could not open workout store: %v", err)
	}

	if *clear {
		if err := workoutStore.Clear(); err != nil {
			log.Fatalf("FATAL: Could not clear stored workout: %v", err)
		}
		fmt.Println("Stored workout cleared.")
		return
	}

	if *show {
		printStored(workoutStore)
		return
	}

	endpoint := cfg.Client.EndpointURL
	if *endpointArg != "" {
		endpoint = *endpointArg
	}
	endpoint = strings.TrimRight(endpoint, "/") + "/api/v1/workouts/generate"

	// The form controls clamp ranges before submission; flags get the same
	// treatment so the builder never sees out-of-range numbers.
	input := generation.FormInput{
		Prompt:              *prompt,
		WeatherContext:      *weather,
		SelectedExercises:   parseEquipment(*equipment),
		FitnessLevel:        *level,
		PrescribedExercises: *prescribed,
		Injuries:            *injuries,
		NumberOfDays:        clamp(*days, domain.MinNumberOfDays, domain.MaxNumberOfDays),
		NumberOfCycles:      clamp(*cycles, domain.MinNumberOfCycles, domain.MaxNumberOfCycles),
	}
	for _, advisory := range generation.Advisories(input) {
		log.Printf("WARN: %s", advisory)
	}

	httpClient := &http.Client{Timeout: *timeout}
	if *token != "" {
		httpClient.Transport = &authTransport{token: *token, base: http.DefaultTransport}
	}

	svc := generation.NewService(endpoint, httpClient)
	controller := generation.NewController(svc, workoutStore, notify.LogNotifier{})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	workout := controller.Generate(ctx, generation.BuildParams(input))
	if workout == nil {
		if controller.ShowPaywall() {
			fmt.Println("Upgrade at https://strength.design/upgrade to keep generating.")
		}
		// The controller already notified; the exit code is for scripts.
		os.Exit(1)
	}

	printWorkout(*workout)
	if debug := controller.DebugInfo(); debug != nil {
		log.Printf("debug: model=%s promptTokens=%d completionTokens=%d elapsedMs=%d",
			debug.Model, debug.PromptTokens, debug.CompletionTokens, debug.ElapsedMS)
	}
}

// authTransport injects the bearer token into every request.
type authTransport struct {
	token string
	base  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(clone)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func parseEquipment(list string) []domain.Exercise {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	var out []domain.Exercise
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, domain.Exercise{Name: name})
	}
	return out
}

func printStored(s *store.WorkoutStore) {
	rec, ok := s.Current()
	if !ok {
		fmt.Println("No stored workout.")
		return
	}
	freshness := "stale"
	if s.HasValidWorkout() {
		freshness = "current"
	}
	fmt.Printf("Stored workout (%s, generated %s):\n\n", freshness, rec.GeneratedAt.Format(time.RFC822))
	if rec.Title != "" {
		fmt.Println(rec.Title)
	}
	if rec.Summary != "" {
		fmt.Println(rec.Summary)
	}
	fmt.Println()
	printWorkout(rec.Workout)
}

func printWorkout(w domain.WeeklyWorkout) {
	if title := w.Title(); title != "" {
		fmt.Printf("== %s ==\n", title)
	}
	if summary := w.Summary(); summary != "" {
		fmt.Println(summary)
	}

	cycleKeys := make([]string, 0, len(w.Cycles))
	for key := range w.Cycles {
		cycleKeys = append(cycleKeys, key)
	}
	sort.Strings(cycleKeys)

	for _, cycleKey := range cycleKeys {
		cycle := w.Cycles[cycleKey]
		if len(cycleKeys) > 1 {
			fmt.Printf("\n--- %s ---\n", cycleKey)
		}

		dayKeys := make([]string, 0, len(cycle))
		for key := range cycle {
			dayKeys = append(dayKeys, key)
		}
		sort.Strings(dayKeys)

		for _, dayKey := range dayKeys {
			day := cycle[dayKey]
			fmt.Printf("\n%s\n", strings.ToUpper(dayKey))
			printBlock("", day.Description)
			printBlock("Warmup", day.Warmup)
			printBlock("Workout", day.Workout)
			printBlock("Strength", day.Strength)
			printBlock("Notes", day.Notes)
		}
	}
}

func printBlock(label, content string) {
	if content == "" {
		return
	}
	if label == "" {
		fmt.Printf("  %s\n", content)
		return
	}
	fmt.Printf("  %s: %s\n", label, content)
}
