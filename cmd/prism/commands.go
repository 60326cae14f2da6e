package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pluralign/prism/internal/community"
	"github.com/pluralign/prism/internal/config"
	"github.com/pluralign/prism/internal/dataset"
	"github.com/pluralign/prism/internal/eval"
	"github.com/pluralign/prism/internal/selection"
)

// --- ask ---

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from a user's perspective set",
	Long: `Answer a question from a user's perspective set.

The user can come from the dataset (--user) or be described inline
(--community plus --community-type).

Examples:
  prism ask --user U001 "Is it wrong to eat animals?"
  prism ask --community Catholic --community-type religious "Should abortion be legal?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		userID, _ := cmd.Flags().GetString("user")
		communityID, _ := cmd.Flags().GetString("community")
		communityType, _ := cmd.Flags().GetString("community-type")
		asJSON, _ := cmd.Flags().GetBool("json")

		if userID == "" && communityID == "" {
			return fmt.Errorf("one of --user or --community is required")
		}

		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		var user selection.UserProfile
		switch {
		case userID != "":
			u, ok := dataset.UserProfile(dataCases(a), userID)
			if !ok {
				return fmt.Errorf("unknown user %q (not in dataset %s)", userID, a.cfg.Dataset.Path)
			}
			user = u
		case communityID != "":
			if communityType == "" {
				communityType = community.TierOf(communityID).String()
			}
			user = selection.UserProfile{
				UserID:               "cli",
				PrimaryCommunity:     communityID,
				PrimaryCommunityType: communityType,
				CommunityStrength:    "strong",
			}
		}

		resp, err := a.pipeline.Answer(cmd.Context(), user, question)
		if err != nil {
			return err
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}

		if !resp.SurfacedPerspectives {
			fmt.Println(resp.StandardResponse)
			return nil
		}

		fmt.Printf("%s %s\n", colorize(colorBold, "Topic:"), resp.TopicCategory)
		if resp.Rationale != "" {
			fmt.Printf("%s %s\n", colorize(colorBold, "Why perspectives:"), resp.Rationale)
		}

		order := append([]string{resp.Baseline}, resp.Additional...)
		for _, id := range order {
			text, ok := resp.Perspectives[id]
			if !ok {
				continue
			}
			label := community.DisplayName(id)
			if id == resp.Baseline {
				label += " (your community)"
			}
			fmt.Printf("\n%s\n%s\n", colorize(colorCyan, label), text)
		}
		if resp.Tensions != "" {
			fmt.Printf("\n%s\n%s\n", colorize(colorBold, "Where they differ"), resp.Tensions)
		}
		if resp.Synthesis != "" {
			fmt.Printf("\n%s\n%s\n", colorize(colorBold, "Taken together"), resp.Synthesis)
		}
		return nil
	},
}

// dataCases reloads the dataset for user lookup. The app keeps only the
// distinct profiles, which lack the per-query rows UserProfile searches.
func dataCases(a *app) []dataset.TestCase {
	cases, err := dataset.Load(a.cfg.Dataset.Path)
	if err != nil {
		return nil
	}
	return cases
}

func init() {
	askCmd.Flags().String("user", "", "dataset user ID to answer as")
	askCmd.Flags().String("community", "", "primary community for an inline profile")
	askCmd.Flags().String("community-type", "", "community type for an inline profile (religious, political, professional, identity)")
	askCmd.Flags().Bool("json", false, "print the full response as JSON")
}

// --- cache ---

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or prune the perspective cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache size and hit counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		stats, err := a.cache.Stats()
		if err != nil {
			return err
		}

		fmt.Printf("  %s = %d\n", colorize(colorBold, "entries"), stats.TotalEntries)
		fmt.Printf("  %s = %d\n", colorize(colorBold, "hits"), stats.TotalHits)
		for _, cc := range stats.TopCommunities {
			fmt.Printf("  %s: %d entries\n", community.DisplayName(cc.Community), cc.Count)
		}
		return nil
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired cache entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		printStep("Sweeping expired cache entries...")
		removed, err := a.cache.SweepExpired()
		if err != nil {
			return err
		}

		printSuccess("Removed %d expired entries", removed)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
}

// --- eval ---

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the evaluation suites over the test dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		datasetPath, _ := cmd.Flags().GetString("dataset")
		asJSON, _ := cmd.Flags().GetBool("json")
		output, _ := cmd.Flags().GetString("output")

		if datasetPath == "" {
			path, err := config.ResolveConfigPath(configPath)
			if err != nil {
				return err
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			datasetPath = cfg.Dataset.Path
		}

		cases, err := dataset.Load(datasetPath)
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}

		printStep("Running evaluation suites over %d cases...", len(cases))
		summary := eval.RunAll(cases)

		if asJSON || output != "" {
			data, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}
			if output != "" {
				if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
					return err
				}
				printSuccess("Results written to %s", output)
			} else {
				fmt.Println(string(data))
			}
			if !asJSON {
				printEvalSummary(summary)
			}
			return nil
		}

		printEvalSummary(summary)
		if !summary.AllTargetsMet() {
			return fmt.Errorf("evaluation targets not met")
		}
		return nil
	},
}

func printEvalSummary(s eval.Summary) {
	app := s.Appropriateness
	fmt.Printf("%s  %s\n", colorize(colorBold, "Appropriateness"), passFail(app.MeetsTargets()))
	fmt.Printf("  precision %.2f (target %.2f)  recall %.2f (target %.2f)  accuracy %.2f\n",
		app.Precision, eval.TargetPrecision, app.Recall, eval.TargetRecall, app.Accuracy)
	fmt.Printf("  TP %d  TN %d  FP %d  FN %d over %d cases\n",
		app.TruePositives, app.TrueNegatives, app.FalsePositives, app.FalseNegatives, app.TotalCases)
	for _, e := range app.Errors {
		fmt.Printf("  %s %s: %q\n", colorize(colorYellow, e.Outcome), e.QueryID, e.Query)
	}

	cov := s.Coverage
	fmt.Printf("%s  %s\n", colorize(colorBold, "Coverage"), passFail(cov.MeetsTarget()))
	fmt.Printf("  mean recall %.2f (target %.2f): %d perfect, %d partial, %d zero of %d cases\n",
		cov.MeanRecall, eval.TargetCoverage, cov.PerfectCases, cov.PartialCases, cov.ZeroCases, cov.TotalCases)

	con := s.Consistency
	fmt.Printf("%s  %s\n", colorize(colorBold, "Consistency"), passFail(con.MeetsTarget()))
	fmt.Printf("  rate %.2f (target %.2f): %d of %d groups consistent\n",
		con.Rate, eval.TargetConsistency, con.ConsistentGroups, con.TotalGroups)
	for _, g := range con.Groups {
		if !g.Consistent {
			fmt.Printf("  %s %s: %d distinct selection patterns\n",
				colorize(colorYellow, "DIVERGED"), g.Group, g.Patterns)
		}
	}

	if s.AllTargetsMet() {
		printSuccess("All targets met")
	} else {
		printError("One or more targets missed")
	}
}

func passFail(ok bool) string {
	if ok {
		return colorize(colorGreen, "PASS")
	}
	return colorize(colorRed, "FAIL")
}

func init() {
	evalCmd.Flags().String("dataset", "", "dataset CSV path (default: from config)")
	evalCmd.Flags().Bool("json", false, "print the full summary as JSON")
	evalCmd.Flags().String("output", "", "write the JSON summary to a file")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ResolveConfigPath(configPath)
		if err != nil {
			return err
		}
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}

		if path == "" {
			fmt.Println("  (no config file found; defaults and environment apply)")
		} else {
			fmt.Printf("  config file: %s\n", path)
		}

		values := map[string]string{
			"server.port":              fmt.Sprintf("%d", cfg.Server.Port),
			"server.api_token_env":     cfg.Server.APITokenEnv,
			"llm.base_url":             cfg.LLM.BaseURL,
			"llm.model":                cfg.LLM.Model,
			"llm.api_key_env":          cfg.LLM.APIKeyEnv,
			"storage.data_dir":         cfg.GetDataDir(),
			"cache.ttl_days":           fmt.Sprintf("%d", cfg.Cache.TTLDays),
			"selection.max_additional": fmt.Sprintf("%d", cfg.Selection.MaxAdditional),
			"dataset.path":             cfg.Dataset.Path,
			"logging.level":            cfg.Logging.Level,
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k), values[k])
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}
