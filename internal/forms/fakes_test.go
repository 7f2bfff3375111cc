package forms

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"formfill/internal/models"
	"formfill/internal/redtail"
	"formfill/internal/repo"
)

// memTemplates - repo.Templates в памяти.
type memTemplates struct {
	byName  map[string]*models.FormTemplate
	listErr error
	touched []string
}

func newMemTemplates(tpls ...models.FormTemplate) *memTemplates {
	m := &memTemplates{byName: map[string]*models.FormTemplate{}}
	for i := range tpls {
		t := tpls[i]
		m.byName[t.Filename] = &t
	}
	return m
}

func (m *memTemplates) Create(_ context.Context, t *models.FormTemplate) error {
	if _, ok := m.byName[t.Filename]; ok {
		return errors.New("duplicate filename")
	}
	t.ID = fmt.Sprintf("id-%d", len(m.byName)+1)
	cp := *t
	m.byName[t.Filename] = &cp
	return nil
}

func (m *memTemplates) Get(_ context.Context, filename string) (*models.FormTemplate, error) {
	t, ok := m.byName[filename]
	if !ok {
		return nil, fmt.Errorf("template %s: %w", filename, repo.ErrNotFound)
	}
	cp := *t
	return &cp, nil
}

func (m *memTemplates) List(context.Context) ([]models.FormTemplate, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.byName))
	for n := range m.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	out := make([]models.FormTemplate, 0, len(names))
	for _, n := range names {
		out = append(out, *m.byName[n])
	}
	return out, nil
}

func (m *memTemplates) Exists(_ context.Context, filename string) (bool, error) {
	_, ok := m.byName[filename]
	return ok, nil
}

func (m *memTemplates) Update(_ context.Context, filename, newFilename, description, category string) (string, error) {
	t, ok := m.byName[filename]
	if !ok {
		return "", repo.ErrNotFound
	}
	if _, taken := m.byName[newFilename]; taken && newFilename != filename {
		newFilename = repo.CollisionName(newFilename)
	}
	delete(m.byName, filename)
	t.Filename, t.Description, t.FormCategory = newFilename, description, category
	m.byName[newFilename] = t
	return newFilename, nil
}

func (m *memTemplates) UpdateFieldMap(_ context.Context, filename string, fields map[string]string) error {
	t, ok := m.byName[filename]
	if !ok {
		return repo.ErrNotFound
	}
	t.FieldJSON = models.NewFieldJSON(fields)
	return nil
}

func (m *memTemplates) TouchUsage(_ context.Context, filename string) error {
	m.touched = append(m.touched, filename)
	t, ok := m.byName[filename]
	if !ok {
		return repo.ErrNotFound
	}
	t.TimesUsed++
	t.LastUsed = time.Now()
	return nil
}

func (m *memTemplates) Delete(_ context.Context, filename string) error {
	if _, ok := m.byName[filename]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byName, filename)
	return nil
}

type fakeBundles struct {
	CreateFunc func(ctx context.Context, name string, filenames []string) (*models.FormBundle, error)
	UpdateFunc func(ctx context.Context, id, name string, filenames []string) (*models.FormBundle, error)
	ListFunc   func(ctx context.Context) ([]models.BundleView, error)
	DeleteFunc func(ctx context.Context, name string) error
}

func (f *fakeBundles) Create(ctx context.Context, name string, filenames []string) (*models.FormBundle, error) {
	return f.CreateFunc(ctx, name, filenames)
}

func (f *fakeBundles) Update(ctx context.Context, id, name string, filenames []string) (*models.FormBundle, error) {
	return f.UpdateFunc(ctx, id, name, filenames)
}

func (f *fakeBundles) List(ctx context.Context) ([]models.BundleView, error) {
	return f.ListFunc(ctx)
}

func (f *fakeBundles) Delete(ctx context.Context, name string) error {
	return f.DeleteFunc(ctx, name)
}

type fakeGatherer struct {
	GatherFunc func(ctx context.Context, email string) (redtail.Record, error)
}

func (f fakeGatherer) Gather(ctx context.Context, email string) (redtail.Record, error) {
	return f.GatherFunc(ctx, email)
}

func staticRecord(rec redtail.Record) fakeGatherer {
	return fakeGatherer{GatherFunc: func(context.Context, string) (redtail.Record, error) { return rec, nil }}
}
