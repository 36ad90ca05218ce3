package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/draftmill-io/draftmill/internal/db"
)

// CreateIndex creates a corpus FT index: title and content as TEXT,
// domain and categories as TAG, and optionally a FLAT vector field.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Err: err}
	}
	return nil
}

// IndexExists probes index existence via FT.INFO; "unknown index name" means absent.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Err: err}
	}
	return true, nil
}

func buildCreateArgs(def *db.IndexDefinition) ([]string, error) {
	if def.Name == "" {
		return nil, errors.New("index name is required")
	}
	if len(def.Prefixes) == 0 {
		return nil, errors.New("at least one key prefix is required")
	}

	args := []string{def.Name, "ON", "HASH"}
	args = append(args, "PREFIX", strconv.Itoa(len(def.Prefixes)))
	args = append(args, def.Prefixes...)

	args = append(args, "SCHEMA",
		"title", "TEXT",
		"content", "TEXT",
		"domain", "TAG",
		"categories", "TAG",
	)

	if def.VectorDims > 0 {
		args = append(args,
			"vector", "VECTOR", "FLAT", "6",
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(def.VectorDims),
			"DISTANCE_METRIC", "COSINE",
		)
	}

	return args, nil
}
