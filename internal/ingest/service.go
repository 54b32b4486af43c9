package ingest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/lex-technology/workwise-backend/internal/applications"
	"github.com/lex-technology/workwise-backend/internal/extract"
	"github.com/lex-technology/workwise-backend/internal/parsedresumes"
	"github.com/lex-technology/workwise-backend/internal/parser"
	"github.com/lex-technology/workwise-backend/internal/shared/apperr"
	"github.com/lex-technology/workwise-backend/internal/shared/metrics"
	"github.com/lex-technology/workwise-backend/internal/shared/storage/object"
	"github.com/lex-technology/workwise-backend/internal/shared/telemetry"
)

// Service runs the upload pipeline: hash, cache lookup, extract, parse,
// store, application build. The provider is only reached on a cache miss.
type Service struct {
	Parsed *parsedresumes.Service
	Apps   *applications.Service
	Parser *parser.Service

	// Store archives raw uploads and extracted text. Nil disables
	// archiving; failures never block the pipeline.
	Store object.ObjectStore
}

// Input is one submission. When both a file and a reference arrive the
// reference wins and the file is ignored.
type Input struct {
	UserID         string
	FileName       string
	Data           []byte
	ParsedResumeID int64
	CompanyApplied string
	RoleApplied    string
	JobDescription string
}

// Result reports the created application. IsReused is true when the parse
// came from the cache or an explicit reference rather than a provider call.
type Result struct {
	ResumeID int64
	IsReused bool
}

// Process validates the caller's quota, resolves a parsed resume for the
// submission, and builds the application record from it.
func (s *Service) Process(ctx context.Context, in Input) (Result, error) {
	if err := s.Apps.CanCreate(ctx, in.UserID); err != nil {
		return Result{}, err
	}

	if in.ParsedResumeID > 0 {
		pr, err := s.Parsed.GetByID(ctx, in.ParsedResumeID)
		if err != nil {
			return Result{}, err
		}
		return s.build(ctx, in, pr, nil, true, "")
	}

	metrics.IncParseStarted()
	sum := sha256.Sum256(in.Data)
	hash := hex.EncodeToString(sum[:])

	pr, hit, err := s.Parsed.LookupByHash(ctx, hash)
	if err != nil {
		return Result{}, err
	}
	if hit {
		metrics.IncParseCacheHit()
		fileKey := s.archive(ctx, in, pr.RawText)
		return s.build(ctx, in, pr, nil, true, fileKey)
	}

	text, meta, err := extract.ExtractText(ctx, in.Data, in.FileName)
	if err != nil {
		metrics.IncParseFailed()
		return Result{}, err
	}

	parsed, rawParsed, err := s.Parser.Parse(ctx, text)
	if err != nil {
		metrics.IncParseFailed()
		return Result{}, err
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		metrics.IncParseFailed()
		return Result{}, fmt.Errorf("marshal extract metadata: %w", err)
	}

	stored, reused, err := s.Parsed.Store(ctx, parsedresumes.ParsedResume{
		UserID:           in.UserID,
		ContentHash:      hash,
		OriginalFilename: in.FileName,
		RawText:          text,
		ParsedContent:    rawParsed,
		Metadata:         metaJSON,
	})
	if err != nil {
		metrics.IncParseFailed()
		return Result{}, err
	}
	if reused {
		// Lost a same-hash race; the winner's content is authoritative.
		parsed = nil
	}

	fileKey := s.archive(ctx, in, text)
	return s.build(ctx, in, stored, parsed, reused, fileKey)
}

// build decomposes the parsed content into a new application record. A nil
// parsed argument means the content comes from a stored row and is decoded
// from it.
func (s *Service) build(ctx context.Context, in Input, pr parsedresumes.ParsedResume, parsed *parser.StructuredResume, reused bool, fileKey string) (Result, error) {
	if parsed == nil {
		parsed = &parser.StructuredResume{}
		if err := json.Unmarshal(pr.ParsedContent, parsed); err != nil {
			return Result{}, fmt.Errorf("decode stored parse %d: %w", pr.ID, apperr.ErrPersistenceFailed)
		}
	}

	app, err := s.Apps.Build(ctx, applications.BuildInput{
		UserID:         in.UserID,
		CompanyApplied: in.CompanyApplied,
		RoleApplied:    in.RoleApplied,
		JobDescription: in.JobDescription,
		ParsedResumeID: pr.ID,
		ResumeFileKey:  fileKey,
	}, parsed)
	if err != nil {
		return Result{}, err
	}

	telemetry.Info("ingest.processed", map[string]any{
		"user_id":          in.UserID,
		"resume_id":        app.ID,
		"parsed_resume_id": pr.ID,
		"is_reused":        reused,
	})
	return Result{ResumeID: app.ID, IsReused: reused}, nil
}

// archive stores the raw upload and its extracted text as side records. The
// returned key is persisted on the application; failures only warn.
func (s *Service) archive(ctx context.Context, in Input, text string) string {
	if s.Store == nil || len(in.Data) == 0 {
		return ""
	}
	key, _, _, err := s.Store.Save(ctx, in.UserID, in.FileName, bytes.NewReader(in.Data))
	if err != nil {
		telemetry.Warn("ingest.archive_failed", map[string]any{
			"user_id": in.UserID,
			"file":    in.FileName,
			"error":   err.Error(),
		})
		return ""
	}
	if text != "" {
		if _, _, _, err := s.Store.Save(ctx, in.UserID, in.FileName+".txt", bytes.NewReader([]byte(text))); err != nil {
			telemetry.Warn("ingest.archive_failed", map[string]any{
				"user_id": in.UserID,
				"file":    in.FileName + ".txt",
				"error":   err.Error(),
			})
		}
	}
	return key
}
