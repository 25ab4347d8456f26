package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestEmbedCommandFlags(t *testing.T) {
	app := &cli.App{
		Name: "enrich",
		Commands: []*cli.Command{
			{
				Name:   "embed",
				Action: embedCommand,
				Flags: append(dbFlags(),
					&cli.StringFlag{
						Name:  "embedding-host",
						Value: "http://localhost:11434/v1",
					},
					&cli.StringFlag{
						Name:     "embedding-model",
						Required: true,
					},
				),
			},
		},
	}

	t.Run("missing db flag fails", func(t *testing.T) {
		args := []string{"enrich", "embed", "--embedding-model", "test-model"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db")
	})

	t.Run("embedding-model is required", func(t *testing.T) {
		args := []string{"enrich", "embed", "--db", "/tmp/test"}
		err := app.Run(args)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding-model")
	})

	t.Run("embedding-host has default value", func(t *testing.T) {
		cmd := app.Commands[0]
		var hostFlag *cli.StringFlag
		for _, flag := range cmd.Flags {
			if f, ok := flag.(*cli.StringFlag); ok && f.Name == "embedding-host" {
				hostFlag = f
				break
			}
		}
		require.NotNil(t, hostFlag)
		assert.Equal(t, "http://localhost:11434/v1", hostFlag.Value)
	})
}

func TestSetupLogger(t *testing.T) {
	newApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				return nil
			},
		}
	}

	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, level := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(level, func(t *testing.T) {
				err := newApp().Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		err := newApp().Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

func TestDocumentsFromFile(t *testing.T) {
	t.Run("parses blank-line separated blocks", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.txt")
		content := "First Title\nline one\nline two\n\nSecond Title\nbody\n\n\nThird Title\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		docs, err := documentsFromFile(path)
		require.NoError(t, err)
		require.Len(t, docs, 3)

		assert.Equal(t, "First Title", docs[0].Title)
		assert.Equal(t, "line one\nline two", docs[0].Content)
		assert.Equal(t, "Second Title", docs[1].Title)
		assert.Equal(t, "body", docs[1].Content)
		assert.Equal(t, "Third Title", docs[2].Title)
		assert.Empty(t, docs[2].Content)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := documentsFromFile(filepath.Join(t.TempDir(), "nope.txt"))
		assert.Error(t, err)
	})
}
