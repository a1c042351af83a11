package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/steelworks/opshub/internal/clock"
	"github.com/steelworks/opshub/internal/config"
	"github.com/steelworks/opshub/internal/ingestion"
	"github.com/steelworks/opshub/internal/integrity"
	"github.com/steelworks/opshub/internal/lot"
	"github.com/steelworks/opshub/internal/migration"
	"github.com/steelworks/opshub/internal/observability"
	"github.com/steelworks/opshub/internal/pipeline"
	"github.com/steelworks/opshub/internal/record"
	"github.com/steelworks/opshub/internal/scheduler"
	"github.com/steelworks/opshub/internal/server"
	"github.com/steelworks/opshub/internal/sourcehealth"
	"github.com/steelworks/opshub/internal/view"
	"github.com/steelworks/opshub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain
		record.Module,
		lot.Module,
		integrity.Module,
		sourcehealth.Module,
		view.Module,
		ingestion.Module,
		pipeline.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
