package main

import (
	"context"
	"errors"
	"os"

	"giftwallet/internal/amqp"
	"giftwallet/internal/cli"
	"giftwallet/internal/config"
	"giftwallet/internal/log"
	"giftwallet/internal/sheets"
	gsheet "giftwallet/internal/sheets/google"
	"giftwallet/internal/worker"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig((*config.Config).ValidateWorker)
	logger.Info("Starting giftwallet-worker", log.FieldOperation, log.OpStartup)

	ctx, cancel := cli.SignalContext(context.Background(), logger)
	defer cancel()

	var ledger sheets.LedgerWriter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleLedgerSheet)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", log.FieldError, err)
			os.Exit(1)
		}
		if err := client.EnsureHeader(ctx); err != nil {
			logger.Error("Failed to prepare ledger sheet", log.FieldError, err, "sheet", cfg.GoogleLedgerSheet)
			os.Exit(1)
		}
		ledger = client
		logger.Info("Google Sheets ledger enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID, "sheet", cfg.GoogleLedgerSheet)
	} else {
		ledger = sheets.NewLogLedger(logger)
		logger.Info("Google Sheets disabled, card events are only logged")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	w := worker.NewLedgerWorker(ledger, logger)
	if err := amqpClient.ConsumeCardEvents(ctx, w.HandleCardEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Card event consumption failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
