package service

import (
	"context"
	"strings"

	"rag-chat-be/internal/dto"
	"rag-chat-be/internal/pkg/logger"
	"rag-chat-be/pkg/llm/factory"
	"rag-chat-be/pkg/rag/override"
	"rag-chat-be/pkg/rag/provider"
)

type IProviderService interface {
	GetProviders(ctx context.Context, sessionId string) (*dto.ProvidersResponse, error)
	SetProviders(ctx context.Context, sessionId string, request *dto.SetProvidersRequest) (*dto.ProvidersResponse, error)
	ClearProviders(ctx context.Context, sessionId string) (*dto.ProvidersResponse, error)
	// ResetModels drops cached model handles for one provider, or all of
	// them when providerTag is empty.
	ResetModels(providerTag string) error
}

type providerService struct {
	overrides *override.Store
	resolver  *provider.Resolver
	logger    logger.ILogger
}

func NewProviderService(overrides *override.Store, resolver *provider.Resolver, log logger.ILogger) IProviderService {
	return &providerService{overrides: overrides, resolver: resolver, logger: log}
}

func (s *providerService) GetProviders(ctx context.Context, sessionId string) (*dto.ProvidersResponse, error) {
	rec, err := s.overrides.Get(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	sel, err := s.resolver.ResolveSelection(ctx, sessionId)
	if err != nil {
		return nil, err
	}
	return s.toResponse(sessionId, sel, rec), nil
}

// SetProviders replaces the session's override wholesale. A request naming
// no provider clears the override.
func (s *providerService) SetProviders(ctx context.Context, sessionId string, request *dto.SetProvidersRequest) (*dto.ProvidersResponse, error) {
	reasoning, err := normalizeTag(request.ReasoningProvider)
	if err != nil {
		return nil, err
	}
	generation, err := normalizeTag(request.GenerationProvider)
	if err != nil {
		return nil, err
	}

	if reasoning == "" && generation == "" {
		return s.ClearProviders(ctx, sessionId)
	}

	if _, err := s.overrides.Set(ctx, sessionId, reasoning, generation); err != nil {
		return nil, err
	}
	s.logger.Info("provider", "Override set", map[string]interface{}{
		"session_id":          sessionId,
		"reasoning_provider":  reasoning,
		"generation_provider": generation,
		"ttl_seconds":         int(s.overrides.TTL().Seconds()),
	})
	return s.GetProviders(ctx, sessionId)
}

func (s *providerService) ClearProviders(ctx context.Context, sessionId string) (*dto.ProvidersResponse, error) {
	if err := s.overrides.Clear(ctx, sessionId); err != nil {
		return nil, err
	}
	s.logger.Info("provider", "Override cleared", map[string]interface{}{"session_id": sessionId})
	return s.toResponse(sessionId, s.resolver.Defaults(), override.Record{}), nil
}

func (s *providerService) ResetModels(providerTag string) error {
	if providerTag == "" {
		s.resolver.Reset()
		s.logger.Info("provider", "All model handles dropped", nil)
		return nil
	}
	tag, err := normalizeTag(providerTag)
	if err != nil {
		return err
	}
	s.resolver.Invalidate(tag)
	s.logger.Info("provider", "Model handles dropped", map[string]interface{}{"provider": tag})
	return nil
}

func (s *providerService) toResponse(sessionId string, sel provider.Selection, rec override.Record) *dto.ProvidersResponse {
	res := &dto.ProvidersResponse{
		SessionId:          sessionId,
		ReasoningProvider:  sel.ReasoningProvider,
		GenerationProvider: sel.GenerationProvider,
		TTLSeconds:         int(s.overrides.TTL().Seconds()),
		Available:          factory.KindNames(),
	}
	if !rec.IsEmpty() {
		res.Override = &dto.ProviderOverride{
			ReasoningProvider:  rec.ReasoningProvider,
			GenerationProvider: rec.GenerationProvider,
		}
	}
	return res
}

func normalizeTag(tag string) (string, error) {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if tag == "" {
		return "", nil
	}
	kind, err := factory.ParseKind(tag)
	if err != nil {
		return "", err
	}
	return string(kind), nil
}
