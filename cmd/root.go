// Copyright 2021-2023
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	json "github.com/goccy/go-json"

	"github.com/urban-geospatial/urban-lens-server/common"
	"github.com/urban-geospatial/urban-lens-server/database"
	"github.com/urban-geospatial/urban-lens-server/middleware"
	"github.com/urban-geospatial/urban-lens-server/router"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "urban-lens-server",
	Short: "Serve an urban infrastructure catalog API",
	Long:  `urban-lens-server exposes buried utility networks and buildings as a STAC-style catalog backed by a PostGIS database`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		common.SetupLogging()
		log.Info().Msg("initialized logging")

		// try connecting to the database early so we fail fast if
		// we cannot connect to the database
		pool := database.GetInstance(ctx)
		defer pool.Close()
		log.Info().Msg("successfully connected to database")

		// Create new Fiber instance
		app := fiber.New(fiber.Config{
			JSONEncoder: json.Marshal,
			JSONDecoder: json.Unmarshal,
			BodyLimit:   viper.GetInt("server.body_limit_mb") * 1024 * 1024,
		})

		// shutdown cleanly on interrupt
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt)
		go func() {
			sig := <-c // block until signal is read
			fmt.Printf("Received signal: '%s'; shutting down...\n", sig.String())
			err := app.ShutdownWithTimeout(time.Second * 5)
			if err != nil {
				log.Fatal().Err(err).Msg("app shutdown failed")
			}
		}()

		// Configure CORS
		app.Use(cors.New(cors.Config{
			AllowOrigins: "*",
			AllowHeaders: "Accept, Authorization, Content-Type, Origin, X-Requested-With",
			AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		}))

		// compression
		app.Use(compress.New(compress.Config{
			Level: compress.LevelBestSpeed, // 1
		}))

		// Setup logging middleware
		app.Use(middleware.NewLogger())

		// Add timing headers
		app.Use(middleware.Timer())

		prometheus := fiberprometheus.New("urban-lens-server")
		prometheus.RegisterAt(app, "/metrics")
		app.Use(prometheus.Middleware)

		// Setup routes
		router.SetupRoutes(app)

		err := app.Listen(":" + viper.GetString("server.port"))
		if err != nil {
			log.Fatal().Err(err).Msg("app.Listen returned an error")
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.urban-lens-server.toml)")

	// server flags

	if err := viper.BindEnv("server.port", "PORT"); err != nil {
		log.Panic().Err(err).Msg("could not bind PORT")
	}
	rootCmd.Flags().IntP("port", "p", 8000, "Port to run application server on")
	if err := viper.BindPFlag("server.port", rootCmd.Flags().Lookup("port")); err != nil {
		log.Panic().Err(err).Msg("could not bind port")
	}

	// Logging configuration
	if err := viper.BindEnv("log.level", "LOG_LEVEL"); err != nil {
		log.Panic().Err(err).Msg("could not bind LOG_LEVEL")
	}
	rootCmd.PersistentFlags().String("log-level", "info", "Logging level")
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		log.Panic().Err(err).Msg("could not bind log-level")
	}

	if err := viper.BindEnv("log.report_caller", "LOG_REPORT_CALLER"); err != nil {
		log.Panic().Err(err).Msg("could not bind LOG_REPORT_CALLER")
	}
	rootCmd.PersistentFlags().Bool("log-report-caller", false, "Log function name that called log statement")
	if err := viper.BindPFlag("log.report_caller", rootCmd.PersistentFlags().Lookup("log-report-caller")); err != nil {
		log.Panic().Err(err).Msg("could not bind log-report-caller")
	}

	if err := viper.BindEnv("log.output", "LOG_OUTPUT"); err != nil {
		log.Panic().Err(err).Msg("could not bind LOG_OUTPUT")
	}
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output one of: file path, `stdout`, or `stderr`")
	if err := viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output")); err != nil {
		log.Panic().Err(err).Msg("could not bind log-output")
	}

	// database
	if err := viper.BindEnv("database.dsn", "DSN"); err != nil {
		log.Panic().Err(err).Msg("could not bind DSN")
	}
	rootCmd.PersistentFlags().String("dsn", "", "PostgreSQL connection string")
	if err := viper.BindPFlag("database.dsn", rootCmd.PersistentFlags().Lookup("dsn")); err != nil {
		log.Panic().Err(err).Msg("could not bind database.dsn")
	}

	viper.SetDefault("server.body_limit_mb", 50)

	viper.SetDefault("stac.catalog.id", "urban-lens")
	viper.SetDefault("stac.catalog.title", "Urban Lens")
	viper.SetDefault("stac.catalog.description", "Urban infrastructure and building catalog")
	viper.SetDefault("stac.catalog.version", "1.0.0")

	// fallback extent when a collection is empty
	viper.SetDefault("demo_bbox.min_lon", 49.83)
	viper.SetDefault("demo_bbox.min_lat", 40.365)
	viper.SetDefault("demo_bbox.max_lon", 49.855)
	viper.SetDefault("demo_bbox.max_lat", 40.375)

	viper.SetDefault("import.batch_log_interval", 100)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name "urban-lens-server.toml"
		viper.AddConfigPath("/etc/")
		viper.AddConfigPath(fmt.Sprintf("%s/.config", home))
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		viper.SetConfigName("urban-lens-server.toml")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in. The server runs fine on
	// defaults and environment variables without one.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFile", viper.ConfigFileUsed()).Msg("Loaded config file")
	} else {
		log.Warn().Err(err).Msg("no config file loaded, using defaults")
	}
}
