// Copyright 2018, RadiantBlue Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/venicegeo/bf-s2reader/catalogindex"
	"github.com/venicegeo/bf-s2reader/util"
)

func createRouter(ctx util.LogContext) (*mux.Router, error) {
	router := mux.NewRouter()
	router.HandleFunc("/", func(writer http.ResponseWriter, request *http.Request) {
		writer.Write([]byte("OK"))
	})

	if err := catalogindex.Routes(router, getDbConnectionFunc); err != nil {
		return nil, err
	}
	util.LogInfo(ctx, "Catalog routes registered")

	return router, nil
}

func serveAction(*cli.Context) error {
	logContext := &(util.BasicLogContext{})

	portStr := util.GetPortStr()

	router, err := createRouter(logContext)
	if err != nil {
		return util.LogSimpleErr(logContext, "Failed to create router", err)
	}
	util.LogInfo(logContext, fmt.Sprintf("Listening on %s", portStr))
	return launchServerFunc(portStr, router)
}

var launchServerFunc = launchServer

func launchServer(portStr string, router *mux.Router) error {
	server := http.Server{
		Addr:    portStr,
		Handler: router,
	}

	return server.ListenAndServe()
}
