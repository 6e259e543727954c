package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/api"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/config"
	"github.com/Amazighozn-ti/Synthese-carte-financement/internal/home"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file to the home directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}
		if h.ConfigExists() {
			return fmt.Errorf("config already exists at %s", h.ConfigPath())
		}
		if err := config.WriteDefault(h.ConfigPath()); err != nil {
			return err
		}
		fmt.Println("wrote", h.ConfigPath())
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgPath := cfgFile
		if cfgPath == "" {
			h, err := home.New(homeDir)
			if err != nil {
				return err
			}
			if h.ConfigExists() {
				cfgPath = h.ConfigPath()
			}
		}
		mgr, err := config.NewManager(cfgPath)
		if err != nil {
			return err
		}
		return api.Output(mgr.Get())
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
