package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/sadopc/inkwell/internal/store"
)

func newCategoriesCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "categories",
		Aliases: []string{"cat"},
		Short:   "Manage entry categories",
	}
	cmd.AddCommand(newCategoryCreateCmd(o), newCategoryListCmd(o), newCategoryDeleteCmd(o))
	return cmd
}

func newCategoryCreateCmd(o *options) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "create [name]",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.store.CreateCategory(ctx, a.user.ID, args[0], color)
			if err != nil {
				return fmt.Errorf("create category: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s (%s)\n", c.Name, c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", store.DefaultCategoryColor, "hex color, e.g. #FF6B6B")
	return cmd
}

func newCategoryListCmd(o *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with entry counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			cats, err := a.store.ListCategories(ctx, a.user.ID)
			if err != nil {
				return fmt.Errorf("list categories: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), cats)
			}
			if len(cats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No categories yet.")
				return nil
			}

			t := table.New().Headers("ID", "NAME", "ENTRIES")
			for _, c := range cats {
				name := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Color)).Render(c.Name)
				t.Row(c.ID, name, fmt.Sprintf("%d", c.EntryCount))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.String())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func newCategoryDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [category-id]",
		Short: "Delete a category; its entries are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := o.open(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			c, err := a.store.GetCategory(ctx, args[0])
			if err != nil {
				return err
			}
			if c.UserID != a.user.ID {
				return fmt.Errorf("category %q not found", args[0])
			}
			if err := a.store.DeleteCategory(ctx, c.ID); err != nil {
				return fmt.Errorf("delete category: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", c.Name)
			return nil
		},
	}
}
