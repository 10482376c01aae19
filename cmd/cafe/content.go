package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brewco/cafe/internal/client"
)

var galleryCmd = &cobra.Command{
	Use:     "gallery",
	Short:   "Manage gallery photos",
	GroupID: "content",
}

var galleryListCmd = &cobra.Command{
	Use:   "list",
	Short: "List gallery photos",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		photos, err := apiClient.Photos(cmd.Context())
		if err != nil {
			return fmt.Errorf("listing photos: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), photos)
		}
		printPhotos(cmd.OutOrStdout(), photos)
		return nil
	},
}

var galleryAddCmd = &cobra.Command{
	Use:   "add <image-url>",
	Short: "Add a photo by URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		caption, _ := cmd.Flags().GetString("caption")
		p, err := apiClient.AddPhoto(cmd.Context(), &client.PhotoRequest{
			ImageURL: args[0],
			Caption:  caption,
			Actor:    actor,
		})
		if err != nil {
			return fmt.Errorf("adding photo: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), p)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "added photo %d\n", p.ID)
		return nil
	},
}

var galleryDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a photo",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := apiClient.DeletePhoto(cmd.Context(), id, actor); err != nil {
			return fmt.Errorf("deleting photo: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted photo %d\n", id)
		return nil
	},
}

var heroCmd = &cobra.Command{
	Use:     "hero",
	Short:   "Show or replace the hero banner",
	GroupID: "content",
}

var heroShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the hero banner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := apiClient.Hero(cmd.Context())
		if err != nil {
			return fmt.Errorf("getting hero: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), h)
		}
		printHero(cmd.OutOrStdout(), h)
		return nil
	},
}

var heroSetCmd = &cobra.Command{
	Use:   "set <title>",
	Short: "Replace the hero banner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := &client.HeroRequest{Title: args[0], Actor: actor}
		req.Subtitle, _ = cmd.Flags().GetString("subtitle")
		req.ImageURL, _ = cmd.Flags().GetString("image")

		h, err := apiClient.SetHero(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("setting hero: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), h)
		}
		printHero(cmd.OutOrStdout(), h)
		return nil
	},
}

func init() {
	galleryAddCmd.Flags().String("caption", "", "photo caption")
	galleryCmd.AddCommand(galleryListCmd)
	galleryCmd.AddCommand(galleryAddCmd)
	galleryCmd.AddCommand(galleryDeleteCmd)

	heroSetCmd.Flags().String("subtitle", "", "subtitle")
	heroSetCmd.Flags().String("image", "", "background image URL")
	heroCmd.AddCommand(heroShowCmd)
	heroCmd.AddCommand(heroSetCmd)
}
