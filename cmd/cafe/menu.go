package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brewco/cafe/internal/client"
	"github.com/brewco/cafe/internal/model"
)

var menuCmd = &cobra.Command{
	Use:     "menu",
	Short:   "Manage menu items",
	GroupID: "content",
}

var menuListCmd = &cobra.Command{
	Use:   "list",
	Short: "List menu items",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var f model.MenuFilter
		f.Category, _ = cmd.Flags().GetString("category")
		f.Limit, _ = cmd.Flags().GetInt("limit")
		f.Offset, _ = cmd.Flags().GetInt("offset")

		items, err := apiClient.ListMenu(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("listing menu: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), items)
		}
		printMenuTable(cmd.OutOrStdout(), items)
		return nil
	},
}

var menuShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		it, err := apiClient.GetMenuItem(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("getting menu item: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), it)
		}
		printMenuItem(cmd.OutOrStdout(), it)
		return nil
	},
}

var menuAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.MenuItemRequest{Name: args[0], Actor: actor}
		req.Price, _ = cmd.Flags().GetFloat64("price")
		req.Category, _ = cmd.Flags().GetString("category")
		req.Description, _ = cmd.Flags().GetString("description")
		req.BestSeller, _ = cmd.Flags().GetBool("best-seller")
		req.ImageURL, _ = cmd.Flags().GetString("image")

		it, err := apiClient.CreateMenuItem(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("creating menu item: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), it)
		}
		printMenuItem(cmd.OutOrStdout(), it)
		return nil
	},
}

var menuUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change fields of a menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		patch, err := menuPatchFromFlags(cmd)
		if err != nil {
			return err
		}
		it, err := apiClient.UpdateMenuItem(cmd.Context(), id, patch)
		if err != nil {
			return fmt.Errorf("updating menu item: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), it)
		}
		printMenuItem(cmd.OutOrStdout(), it)
		return nil
	},
}

// menuPatchFromFlags sets only the fields whose flags were given.
func menuPatchFromFlags(cmd *cobra.Command) (*client.MenuItemPatch, error) {
	p := &client.MenuItemPatch{Actor: actor}
	fl := cmd.Flags()
	changed := false
	if fl.Changed("name") {
		v, _ := fl.GetString("name")
		p.Name, changed = &v, true
	}
	if fl.Changed("price") {
		v, _ := fl.GetFloat64("price")
		p.Price, changed = &v, true
	}
	if fl.Changed("category") {
		v, _ := fl.GetString("category")
		p.Category, changed = &v, true
	}
	if fl.Changed("description") {
		v, _ := fl.GetString("description")
		p.Description, changed = &v, true
	}
	if fl.Changed("best-seller") {
		v, _ := fl.GetBool("best-seller")
		p.BestSeller, changed = &v, true
	}
	if fl.Changed("image") {
		v, _ := fl.GetString("image")
		p.ImageURL, changed = &v, true
	}
	if !changed {
		return nil, fmt.Errorf("nothing to update")
	}
	return p, nil
}

var menuDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a menu item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := apiClient.DeleteMenuItem(cmd.Context(), id, actor); err != nil {
			return fmt.Errorf("deleting menu item: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted menu item %d\n", id)
		return nil
	},
}

var menuCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List menu categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cats, err := apiClient.Categories(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), cats)
		}
		for _, c := range cats {
			fmt.Fprintln(cmd.OutOrStdout(), c)
		}
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func addMenuFieldFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("price", 0, "price")
	cmd.Flags().String("category", "", "category (e.g. Coffee, Smoothies)")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().Bool("best-seller", false, "mark as a best seller")
	cmd.Flags().String("image", "", "image URL")
}

func init() {
	menuListCmd.Flags().String("category", "", "only items in this category")
	menuListCmd.Flags().Int("limit", 0, "maximum number of items (0 = all)")
	menuListCmd.Flags().Int("offset", 0, "items to skip")

	addMenuFieldFlags(menuAddCmd)
	_ = menuAddCmd.MarkFlagRequired("price")
	_ = menuAddCmd.MarkFlagRequired("category")

	menuUpdateCmd.Flags().String("name", "", "name")
	addMenuFieldFlags(menuUpdateCmd)

	menuCmd.AddCommand(menuListCmd)
	menuCmd.AddCommand(menuShowCmd)
	menuCmd.AddCommand(menuAddCmd)
	menuCmd.AddCommand(menuUpdateCmd)
	menuCmd.AddCommand(menuDeleteCmd)
	menuCmd.AddCommand(menuCategoriesCmd)
}
