package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"dirge/internal/cache"
	"dirge/internal/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the translation cache",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List cached translations",
	RunE:  cacheLs,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  cacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete all cached translations",
	RunE:  cacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheLsCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

// openCache opens the configured cache store regardless of the enabled
// flag, so a disabled cache can still be inspected and cleared.
func openCache() (*cache.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return cache.NewStore(filepath.Join(cfg.Cache.Directory, "translations.db"))
}

func cacheLs(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Entries()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("cache is empty")
		return nil
	}

	fmt.Printf("%-16s  %-8s  %-5s  %-19s  %s\n", "KEY", "KIND", "HITS", "CREATED", "INSTRUCTION")
	for _, e := range entries {
		instr := e.Instruction
		if len(instr) > 60 {
			instr = instr[:57] + "..."
		}
		fmt.Printf("%-16s  %-8s  %-5d  %-19s  %s\n",
			e.Key, e.Kind, e.HitCount, e.CreatedAt.Format("2006-01-02 15:04:05"), instr)
	}
	return nil
}

func cacheStats(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("Entries: %d\n", stats.TotalEntries)
	fmt.Printf("Hits:    %d\n", stats.TotalHits)
	for kind, count := range stats.KindBreakdown {
		fmt.Printf("  %-8s %d\n", kind, count)
	}
	return nil
}

func cacheClear(cmd *cobra.Command, args []string) error {
	store, err := openCache()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Println("cache cleared")
	return nil
}
