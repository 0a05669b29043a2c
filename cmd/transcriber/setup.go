// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main contains the setup and initialization logic for the
// transcriber's state: environment preparation, configuration loading,
// and the creation of the external service clients.
//
// Functions:
//   - SetupOS: points the configuration loader at the config files and
//     loads the optional .env file with secrets (the Data API key).
//   - GetConfig: singleton accessor for the loaded configuration.
//   - InitState: creates the service clients and stores them centrally.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/jaycherian/gcp-go-video-transcripts/internal/cloud"
)

// StateManager holds the shared dependencies of the transcriber run,
// avoiding globals scattered across the package.
type StateManager struct {
	config *cloud.Config
	cloud  *cloud.ServiceClients
}

var state = &StateManager{}

// SetupOS prepares the process environment: secrets from an optional
// .env file (such as YOUTUBE_API_KEY), then the variables the
// configuration loader reads.
func SetupOS() (err error) {
	// Missing .env is fine; the key may come from the config file or the
	// ambient environment.
	_ = godotenv.Load()

	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig provides a singleton instance of the application
// configuration, loading the TOML files on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the external service clients and stores them in
// the state manager.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients
}
