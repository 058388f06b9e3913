/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"github.com/spf13/cobra"

	"github.com/llm-d-incubation/fleet-planner/pkg/rest"
	"github.com/llm-d-incubation/fleet-planner/pkg/solver"
)

func newServeCmd() *cobra.Command {
	var (
		addr   string
		engine engineFlags
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve planning requests over REST",
		Long: `Serve planning requests over REST.

The listen address defaults to $PLANNER_HOST:$PLANNER_PORT (port 8080).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server, err := rest.NewPlannerServer(solver.EngineOptions{
				CBCPath:   engine.cbcPath,
				NodeLimit: engine.nodeLimit,
			})
			if err != nil {
				return err
			}
			return server.Run(cmd.Context(), addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", rest.Addr(), "listen address")
	cmd.Flags().StringVar(&engine.cbcPath, "cbc-path", "", "path of the cbc executable")
	cmd.Flags().IntVar(&engine.nodeLimit, "node-limit", 0, "node limit of the bnb engine")
	return cmd
}
