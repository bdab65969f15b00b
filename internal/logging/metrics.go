package logging

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"github.com/Preetham2702/AI-Snake-agent/internal/env"
)

// NewConsole returns a text slog logger writing to w at the named level.
func NewConsole(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// EpisodeRow is one training episode summary.
type EpisodeRow struct {
	RunID     string  `json:"run_id" parquet:"run_id,dict"`
	Episode   int32   `json:"episode" parquet:"episode"`
	Score     int32   `json:"score" parquet:"score"`
	Best      int32   `json:"best" parquet:"best"`
	Ticks     int32   `json:"ticks" parquet:"ticks"`
	Return    float64 `json:"return" parquet:"return"`
	Epsilon   float64 `json:"epsilon" parquet:"epsilon"`
	MeanLoss  float64 `json:"mean_loss" parquet:"mean_loss"`
	Updates   int32   `json:"updates" parquet:"updates"`
	Death     string  `json:"death" parquet:"death,dict"`
	Won       bool    `json:"won" parquet:"won"`
	ElapsedMS int64   `json:"elapsed_ms" parquet:"elapsed_ms"`
}

// Logger handles all training output and metrics files
type Logger struct {
	csvPath     string
	jsonPath    string
	parquetPath string
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	rows        []EpisodeRow
	log         *slog.Logger
	initialized bool
}

// NewLogger creates a new logger. Empty paths disable the matching output.
func NewLogger(csvPath, jsonPath, parquetPath string, log *slog.Logger) (*Logger, error) {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	l := &Logger{
		csvPath:     csvPath,
		jsonPath:    jsonPath,
		parquetPath: parquetPath,
		log:         log,
	}

	// Ensure directories exist
	for _, p := range []string{csvPath, jsonPath, parquetPath} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Init opens the log files
func (l *Logger) Init() error {
	var err error

	if l.csvPath != "" {
		l.csvFile, err = os.Create(l.csvPath)
		if err != nil {
			return err
		}
		l.csvWriter = csv.NewWriter(l.csvFile)

		header := []string{
			"episode", "score", "best", "ticks", "return", "epsilon",
			"mean_loss", "updates", "death", "won", "elapsed_ms",
		}
		if err := l.csvWriter.Write(header); err != nil {
			return err
		}
	}

	if l.jsonPath != "" {
		l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return err
		}
	}

	l.initialized = true
	return nil
}

// LogEpisode records an episode summary in every enabled sink.
func (l *Logger) LogEpisode(row EpisodeRow) error {
	l.log.Info("episode",
		"run", row.RunID,
		"episode", row.Episode,
		"score", row.Score,
		"best", row.Best,
		"ticks", row.Ticks,
		"epsilon", strconv.FormatFloat(row.Epsilon, 'f', 3, 64),
		"loss", strconv.FormatFloat(row.MeanLoss, 'f', 4, 64),
		"death", row.Death,
	)
	if !l.initialized {
		return nil
	}
	l.rows = append(l.rows, row)

	if l.csvWriter != nil {
		rec := []string{
			strconv.Itoa(int(row.Episode)),
			strconv.Itoa(int(row.Score)),
			strconv.Itoa(int(row.Best)),
			strconv.Itoa(int(row.Ticks)),
			fmt.Sprintf("%.2f", row.Return),
			fmt.Sprintf("%.4f", row.Epsilon),
			fmt.Sprintf("%.6f", row.MeanLoss),
			strconv.Itoa(int(row.Updates)),
			row.Death,
			strconv.FormatBool(row.Won),
			strconv.FormatInt(row.ElapsedMS, 10),
		}
		if err := l.csvWriter.Write(rec); err != nil {
			return err
		}
		l.csvWriter.Flush()
		if err := l.csvWriter.Error(); err != nil {
			return err
		}
	}

	if l.jsonFile != nil {
		line, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := l.jsonFile.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// LogEval logs a greedy evaluation summary.
func (l *Logger) LogEval(episode int, agg env.AggregatedStats) {
	l.log.Info("eval",
		"episode", episode,
		"runs", agg.NumEpisodes,
		"score_mean", strconv.FormatFloat(agg.ScoreMean, 'f', 2, 64),
		"score_std", strconv.FormatFloat(agg.ScoreStd, 'f', 2, 64),
		"score_max", agg.ScoreMax,
		"robust", strconv.FormatFloat(agg.RobustnessScore(1), 'f', 2, 64),
		"ticks_mean", strconv.FormatFloat(agg.TicksMean, 'f', 1, 64),
		"deaths_wall", agg.DeathCounts[env.DeathWall],
		"deaths_self", agg.DeathCounts[env.DeathSelf],
		"wins", agg.Wins,
	)
}

// Rows returns the episode rows recorded so far.
func (l *Logger) Rows() []EpisodeRow {
	return l.rows
}

// Close flushes the line-oriented logs and writes the Parquet export.
func (l *Logger) Close() error {
	var errs []error
	if l.csvWriter != nil {
		l.csvWriter.Flush()
		errs = append(errs, l.csvWriter.Error())
	}
	if l.csvFile != nil {
		errs = append(errs, l.csvFile.Close())
	}
	if l.jsonFile != nil {
		errs = append(errs, l.jsonFile.Close())
	}
	if l.initialized && l.parquetPath != "" && len(l.rows) > 0 {
		errs = append(errs, WriteEpisodesParquet(l.parquetPath, l.rows))
	}
	l.initialized = false
	return errors.Join(errs...)
}

// WriteEpisodesParquet writes rows to outPath via a temp file and rename.
func WriteEpisodesParquet(outPath string, rows []EpisodeRow) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "episode_row_v1"),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, outPath); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// ReadEpisodesParquet reads back rows written by WriteEpisodesParquet.
func ReadEpisodesParquet(path string) ([]EpisodeRow, error) {
	return parquet.ReadFile[EpisodeRow](path)
}
