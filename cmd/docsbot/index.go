package main

import (
	"bufio"
	"context"
	"encoding/json"
	"os"

	"github.com/docsbot-dev/docsbot"
	"github.com/docsbot-dev/docsbot/config"
	"github.com/docsbot-dev/docsbot/index"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const maxNodeLineSize = 16 * 1024 * 1024

func newIndexCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "index [nodes.jsonl]",
		Short: "Load the vector index or build it from document nodes",
		Long: `Load the vector index persisted in the configured directory or, if there is none, build it
from a file of document nodes with one json object per line: {"id": "...", "text": "...", "metadata": {"source": "..."}}`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var nodesPath string
			if len(args) > 0 {
				nodesPath = args[0]
			}

			return runIndex(cmd.Context(), o, nodesPath)
		},
	}
}

func runIndex(ctx context.Context, o *options, nodesPath string) (err error) {
	v, err := o.loadConfig()
	if err != nil {
		return err
	}

	logger, err := docsbot.NewZapLogger(v.GetString(config.LogLevelKey))
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer func() {
		_ = logger.Sync()
	}()

	ic, err := config.GetIndexConfig(v)
	if err != nil {
		return err
	}

	var nodes []index.Node
	if nodesPath != "" {
		if nodes, err = readNodes(nodesPath); err != nil {
			return err
		}
	}

	timer := index.NewTimer()

	sc, err := index.LoadServiceContext(ctx, ic)
	if err != nil {
		return err
	}
	defer sc.Close()

	idx, err := index.LoadIndex(ctx, nodes, sc, index.LoadStorageContext(ic.Dimensions), ic.PersistDir)
	if err != nil {
		return err
	}

	logger.Info("Index ready", zap.String("persistDir", ic.PersistDir), zap.Int("nodes", idx.Len()), zap.Duration("elapsed", timer.Stop()))

	return nil
}

// readNodes reads document nodes from a json lines file
func readNodes(path string) (nodes []index.Node, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open nodes file [%s]", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxNodeLineSize)

	nodes = make([]index.Node, 0)
	for line := 1; scanner.Scan(); line++ {
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var n index.Node
		if err = json.Unmarshal(scanner.Bytes(), &n); err != nil {
			return nil, errors.Wrapf(err, "invalid node at line %d of [%s]", line, path)
		}

		nodes = append(nodes, n)
	}

	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read nodes file [%s]", path)
	}

	return nodes, nil
}
