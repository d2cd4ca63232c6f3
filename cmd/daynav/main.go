package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"daynav/internal/logging"
	"daynav/internal/model"
	"daynav/internal/solve"
)

func main() {
	_ = godotenv.Load()

	tripPath := flag.String("trip", "", "path to trip JSON (required)")
	dayID := flag.String("day", "", "day id to plan (required)")
	mph := flag.Float64("mph", 0, "override average speed")
	dwell := flag.Int("dwell", 0, "override default dwell minutes")
	seed := flag.Int64("seed", 0, "override solver seed")
	lambda := flag.Float64("lambda", 0, "override score weight in [0,1]")
	robustness := flag.Float64("robustness", 0, "override drive time inflation factor")
	riskThreshold := flag.Float64("risk-threshold", 0, "minutes of margin below which a stop counts as at risk")
	out := flag.String("out", "", "write plan JSON to file instead of stdout")
	at := flag.String("at", "", "checkpoint clock HH:MM; replans the rest of the day")
	lat := flag.Float64("lat", 0, "checkpoint latitude")
	lon := flag.Float64("lon", 0, "checkpoint longitude")
	done := flag.String("done", "", "comma separated store ids already visited")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	log := logging.New("daynav", *logLevel, "console")

	if *tripPath == "" || *dayID == "" {
		fmt.Fprintln(os.Stderr, "usage: daynav -trip trip.json -day d1 [flags]")
		flag.PrintDefaults()
		os.Exit(1)
	}

	raw, err := os.ReadFile(*tripPath)
	if err != nil {
		log.Fatal().Err(err).Msg("read trip")
	}
	var trip model.Trip
	if err := json.Unmarshal(raw, &trip); err != nil {
		log.Fatal().Err(err).Msg("parse trip")
	}

	ov := model.SolveOverrides{}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mph":
			ov.MPH = mph
		case "dwell":
			ov.DefaultDwellMin = dwell
		case "seed":
			ov.Seed = seed
		case "lambda":
			ov.Lambda = lambda
		case "robustness":
			ov.Robustness = robustness
		case "risk-threshold":
			ov.RiskThresholdMin = riskThreshold
		}
	})

	var plan *model.DayPlan
	var stats solve.Stats
	if *at != "" {
		cp := model.Checkpoint{At: *at, Lat: *lat, Lon: *lon}
		if *done != "" {
			for _, id := range strings.Split(*done, ",") {
				if id = strings.TrimSpace(id); id != "" {
					cp.CompletedIDs = append(cp.CompletedIDs, id)
				}
			}
		}
		plan, stats, err = solve.ReoptimizeDay(&trip, *dayID, cp, ov)
	} else {
		plan, stats, err = solve.SolveDay(&trip, *dayID, ov)
	}

	if err != nil {
		var inf *solve.InfeasibleError
		if errors.As(err, &inf) {
			fmt.Fprintf(os.Stderr, "day %s is infeasible: %s\n", inf.DayID, inf.Reason)
			if len(inf.Suggestions) > 0 {
				fmt.Fprintln(os.Stderr, "suggestions, best first:")
				for _, sg := range inf.Suggestions {
					line := fmt.Sprintf("  %-18s saves %6.1f min", sg.Kind, sg.MinutesSaved)
					if sg.StoreID != "" {
						line += "  store=" + sg.StoreID
					}
					if sg.Detail != "" {
						line += "  " + sg.Detail
					}
					fmt.Fprintln(os.Stderr, line)
				}
			}
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("solve")
	}

	m := plan.Metrics
	summary := fmt.Sprintf("day %s: %d stops, score %.1f, hotel ETA %s, slack %.1f min, drive %.1f min",
		plan.DayID, m.Stops, m.TotalScore, m.HotelETA, m.SlackMin, m.TotalDriveMin)
	if len(m.Binding) > 0 {
		summary += ", binding: " + strings.Join(m.Binding, ",")
	}
	if len(m.Violated) > 0 {
		summary += ", violated: " + strings.Join(m.Violated, ",")
	}
	fmt.Fprintln(os.Stderr, summary)
	for _, ex := range plan.Exclusions {
		line := fmt.Sprintf("excluded %s: %s", ex.StoreID, ex.Reason)
		if ex.Detail != "" {
			line += " (" + ex.Detail + ")"
		}
		fmt.Fprintln(os.Stderr, line)
	}
	log.Debug().Int("evaluations", stats.Evaluations).
		Int("twoOptMoves", stats.TwoOptMoves).Int("relocateMoves", stats.RelocateMoves).
		Msg("solver stats")

	enc, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("encode plan")
	}
	enc = append(enc, '\n')
	if *out != "" {
		if err := os.WriteFile(*out, enc, 0o644); err != nil {
			log.Fatal().Err(err).Msg("write plan")
		}
	} else {
		_, _ = os.Stdout.Write(enc)
	}
}
