package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/skiffdb/skiff/internal/ui"
)

var addCmd = &cobra.Command{
	Use:     "add [text...]",
	GroupID: "items",
	Short:   "Add a new item",
	Long: `Add a new item to the store.

All arguments are joined into one value, so quoting is optional:
  skiff add Buy milk
  skiff add "Buy milk"

Adding empty text does nothing.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)
		st := openStore(ctx, cfg)
		defer st.Close()

		value := strings.TrimSpace(strings.Join(args, " "))
		if err := st.Add(ctx, value); err != nil {
			fmt.Fprintf(os.Stderr, "Error adding item: %v\n", err)
			os.Exit(1)
		}

		if value == "" {
			fmt.Println(ui.Muted("Nothing to add"))
			return
		}
		fmt.Printf("%s%s\n", ui.OK("Added "), value)
	},
}

var doneCmd = &cobra.Command{
	Use:     "done <id>",
	GroupID: "items",
	Short:   "Mark an item as completed",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id := parseID(args[0])
		cfg := loadConfig(cmd)
		st := openStore(ctx, cfg)
		defer st.Close()

		changed, err := st.MarkDone(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error completing item: %v\n", err)
			os.Exit(1)
		}

		if !changed {
			fmt.Println(ui.Muted(fmt.Sprintf("No item with id %d", id)))
			return
		}
		fmt.Printf("%s#%d\n", ui.OK("Completed "), id)
	},
}

var rmCmd = &cobra.Command{
	Use:     "rm <id>",
	GroupID: "items",
	Short:   "Remove an item",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id := parseID(args[0])
		cfg := loadConfig(cmd)
		st := openStore(ctx, cfg)
		defer st.Close()

		changed, err := st.Delete(ctx, id)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error removing item: %v\n", err)
			os.Exit(1)
		}

		if !changed {
			fmt.Println(ui.Muted(fmt.Sprintf("No item with id %d", id)))
			return
		}
		fmt.Printf("%s#%d\n", ui.OK("Removed "), id)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	GroupID: "items",
	Short:   "List pending and completed items",
	Long: `List all items grouped into pending and completed sections.

With --json the snapshot is printed as a JSON object instead:
  {"pending": [...], "completed": [...]}`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)
		st := openStore(ctx, cfg)
		defer st.Close()

		snap, err := st.Refresh(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading items: %v\n", err)
			os.Exit(1)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(snap); err != nil {
				fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
				os.Exit(1)
			}
			return
		}

		fmt.Print(ui.RenderSnapshot(snap))
	},
}

var clearCmd = &cobra.Command{
	Use:     "clear",
	GroupID: "items",
	Short:   "Remove all completed items",
	Long: `Remove every completed item from the store.

Prompts for confirmation unless --force is given.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		cfg := loadConfig(cmd)
		st := openStore(ctx, cfg)
		defer st.Close()

		count, err := st.CountByStatus(ctx, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error counting items: %v\n", err)
			os.Exit(1)
		}
		if count == 0 {
			fmt.Println(ui.Muted("No completed items to clear"))
			return
		}

		force, _ := cmd.Flags().GetBool("force")
		if !force {
			var confirmed bool
			form := huh.NewForm(huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Remove %d completed item(s)?", count)).
					Affirmative("Clear").
					Negative("Cancel").
					Value(&confirmed),
			))
			if err := form.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if !confirmed {
				fmt.Println(ui.Muted("Cancelled"))
				return
			}
		}

		removed, err := st.ClearCompleted(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing items: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s%d item(s)\n", ui.OK("Cleared "), removed)
	},
}

func init() {
	listCmd.Flags().Bool("json", false, "Output as JSON")
	clearCmd.Flags().BoolP("force", "f", false, "Skip the confirmation prompt")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(doneCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(clearCmd)
}
