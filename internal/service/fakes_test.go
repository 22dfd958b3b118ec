package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"rag-chat-be/internal/model"
	"rag-chat-be/internal/repository/contract"
	"rag-chat-be/internal/repository/specification"
	"rag-chat-be/internal/repository/unitofwork"
)

// fakeStore backs both repositories with slices.
type fakeStore struct {
	mu         sync.Mutex
	documents  []*model.DocumentEmbedding
	records    []*model.ChatRecord
	createErr  error
	committed  int
	rolledBack int
}

func (s *fakeStore) NewUnitOfWork(context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{store: s}
}

type fakeUoW struct {
	store   *fakeStore
	inTx    bool
	pending []*model.DocumentEmbedding
	deleted []string
}

func (u *fakeUoW) Begin(context.Context) error {
	if u.inTx {
		return errors.New("transaction already started")
	}
	u.inTx = true
	return nil
}

func (u *fakeUoW) Commit() error {
	u.store.mu.Lock()
	defer u.store.mu.Unlock()
	for _, src := range u.deleted {
		kept := u.store.documents[:0]
		for _, d := range u.store.documents {
			if d.Source != src {
				kept = append(kept, d)
			}
		}
		u.store.documents = kept
	}
	u.store.documents = append(u.store.documents, u.pending...)
	u.store.committed++
	u.inTx = false
	return nil
}

func (u *fakeUoW) Rollback() error {
	u.store.mu.Lock()
	u.store.rolledBack++
	u.store.mu.Unlock()
	u.pending, u.deleted, u.inTx = nil, nil, false
	return nil
}

func (u *fakeUoW) DocumentEmbeddingRepository() contract.DocumentEmbeddingRepository {
	return &fakeDocRepo{uow: u}
}

func (u *fakeUoW) ChatRecordRepository() contract.ChatRecordRepository {
	return &fakeRecordRepo{store: u.store}
}

type fakeDocRepo struct {
	uow *fakeUoW
}

func (r *fakeDocRepo) CreateBulk(_ context.Context, e []*model.DocumentEmbedding) error {
	if r.uow.store.createErr != nil {
		return r.uow.store.createErr
	}
	r.uow.pending = append(r.uow.pending, e...)
	return nil
}

func (r *fakeDocRepo) DeleteBySource(_ context.Context, source string) error {
	r.uow.deleted = append(r.uow.deleted, source)
	return nil
}

func (r *fakeDocRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*model.DocumentEmbedding, error) {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	return filterDocuments(r.uow.store.documents, specs, true), nil
}

func (r *fakeDocRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.uow.store.mu.Lock()
	defer r.uow.store.mu.Unlock()
	return int64(len(filterDocuments(r.uow.store.documents, specs, false))), nil
}

func (r *fakeDocRepo) SearchSimilar(context.Context, []float32, int) ([]*contract.ScoredDocumentEmbedding, error) {
	return nil, nil
}

type fakeRecordRepo struct {
	store *fakeStore
}

func (r *fakeRecordRepo) Create(_ context.Context, rec *model.ChatRecord) error {
	if r.store.createErr != nil {
		return r.store.createErr
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.records = append(r.store.records, rec)
	return nil
}

func (r *fakeRecordRepo) FindAll(_ context.Context, specs ...specification.Specification) ([]*model.ChatRecord, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return filterRecords(r.store.records, specs, true), nil
}

func (r *fakeRecordRepo) Count(_ context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return int64(len(filterRecords(r.store.records, specs, false))), nil
}

// filterDocuments applies the specifications the services use, in memory.
func filterDocuments(in []*model.DocumentEmbedding, specs []specification.Specification, paginate bool) []*model.DocumentEmbedding {
	out := make([]*model.DocumentEmbedding, 0, len(in))
	var page *specification.Pagination
	for _, d := range in {
		keep := true
		for _, spec := range specs {
			if s, ok := spec.(specification.BySource); ok && d.Source != s.Source {
				keep = false
			}
		}
		if keep {
			out = append(out, d)
		}
	}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OrderBy:
			if s.Field == "chunk_index" {
				sort.SliceStable(out, func(i, j int) bool {
					if s.Desc {
						return out[i].ChunkIndex > out[j].ChunkIndex
					}
					return out[i].ChunkIndex < out[j].ChunkIndex
				})
			}
		case specification.Pagination:
			page = &s
		}
	}
	if paginate && page != nil {
		return paginateSlice(out, *page)
	}
	return out
}

func filterRecords(in []*model.ChatRecord, specs []specification.Specification, paginate bool) []*model.ChatRecord {
	out := make([]*model.ChatRecord, 0, len(in))
	var page *specification.Pagination
	for _, r := range in {
		keep := true
		for _, spec := range specs {
			switch s := spec.(type) {
			case specification.ByID:
				keep = keep && r.Id == s.ID
			case specification.BySessionID:
				keep = keep && r.SessionId == s.SessionID
			}
		}
		if keep {
			out = append(out, r)
		}
	}
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OrderBy:
			if s.Field == "created_at" {
				sort.SliceStable(out, func(i, j int) bool {
					if s.Desc {
						return out[i].CreatedAt.After(out[j].CreatedAt)
					}
					return out[i].CreatedAt.Before(out[j].CreatedAt)
				})
			}
		case specification.Pagination:
			page = &s
		}
	}
	if paginate && page != nil {
		return paginateSlice(out, *page)
	}
	return out
}

func paginateSlice[T any](in []T, p specification.Pagination) []T {
	if p.Offset >= len(in) {
		return []T{}
	}
	in = in[p.Offset:]
	if p.Limit > 0 && p.Limit < len(in) {
		in = in[:p.Limit]
	}
	return in
}
