package pipeline

import (
	"context"
	"fmt"
	"strings"

	"rag-chat-be/pkg/apperror"
)

const DefaultTopK = 3

type RetrieveOptions struct {
	TopK int `yaml:"top_k"`
}

// Retrieve fetches grounding context and image references for the question.
type Retrieve struct {
	retriever Retriever
	opts      RetrieveOptions
}

func NewRetrieve(retriever Retriever, opts RetrieveOptions) *Retrieve {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	return &Retrieve{retriever: retriever, opts: opts}
}

func newRetrieveFromConfig(deps Dependencies, cfg StageConfig) (Stage, error) {
	var opts RetrieveOptions
	if err := decodeOptions(StageRetrieve, cfg, &opts); err != nil {
		return nil, err
	}
	if deps.Retriever == nil {
		return nil, apperror.NewConfigError(StageRetrieve, "no retriever configured")
	}
	return NewRetrieve(deps.Retriever, opts), nil
}

func (s *Retrieve) Name() string { return StageRetrieve }

func (s *Retrieve) Run(ctx context.Context, rc *RequestContext) (*RequestContext, error) {
	result, err := s.retriever.Search(ctx, rc.Question, s.opts.TopK)
	if err != nil {
		return nil, apperror.NewStageError(StageRetrieve, fmt.Errorf("retrieve context: %w", err))
	}

	rc.ContextText = result.Context
	rc.Images = splitImagePaths(result.ImagePaths)
	if rc.Extra == nil {
		rc.Extra = make(map[string]any)
	}
	rc.Extra["rag_metadata"] = result
	return rc, nil
}

// splitImagePaths flattens newline separated bundles and drops blanks.
func splitImagePaths(raw []string) []string {
	images := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, p := range strings.Split(entry, "\n") {
			if p = strings.TrimSpace(p); p != "" {
				images = append(images, p)
			}
		}
	}
	return images
}
