package memory

import (
	"context"
	"sort"

	domainvillas "villarent/internal/domain/villas"
)

type villaRepo struct{ u *Unit }

func (r villaRepo) ByID(ctx context.Context, id domainvillas.VillaID) (*domainvillas.Villa, error) {
	var out *domainvillas.Villa
	r.u.store.read(func(s *state) {
		if v, ok := s.villas[id]; ok {
			out = cloneVilla(v)
		}
	})
	if out == nil {
		return nil, domainvillas.ErrNotFound
	}
	return out, nil
}

func (r villaRepo) BySlug(ctx context.Context, slug string) (*domainvillas.Villa, error) {
	var out *domainvillas.Villa
	r.u.store.read(func(s *state) {
		for _, v := range s.villas {
			if v.Slug == slug {
				out = cloneVilla(v)
				return
			}
		}
	})
	if out == nil {
		return nil, domainvillas.ErrNotFound
	}
	return out, nil
}

// Save upserts and bumps the version. Slug uniqueness is checked at commit.
func (r villaRepo) Save(ctx context.Context, villa *domainvillas.Villa) error {
	stored := cloneVilla(villa)
	stored.Version = villa.Version + 1
	return r.u.stage(op{
		check: func(s *state) error {
			for id, v := range s.villas {
				if id != stored.ID && v.Slug == stored.Slug {
					return domainvillas.ErrSlugTaken
				}
			}
			return nil
		},
		apply: func(s *state) {
			s.villas[stored.ID] = stored
			villa.Version = stored.Version
		},
	})
}

func (r villaRepo) Delete(ctx context.Context, id domainvillas.VillaID) error {
	return r.u.stage(op{
		check: func(s *state) error {
			if _, ok := s.villas[id]; !ok {
				return domainvillas.ErrNotFound
			}
			return nil
		},
		apply: func(s *state) { delete(s.villas, id) },
	})
}

func (r villaRepo) Search(ctx context.Context, params domainvillas.SearchParams) (domainvillas.SearchResult, error) {
	opts := params.Normalized()
	var matches []*domainvillas.Villa
	r.u.store.read(func(s *state) {
		for _, v := range s.villas {
			if opts.Matches(v) {
				matches = append(matches, cloneVilla(v))
			}
		}
	})
	if err := ctx.Err(); err != nil {
		return domainvillas.SearchResult{}, err
	}
	sort.Slice(matches, func(i, j int) bool { return opts.Less(matches[i], matches[j]) })

	total := len(matches)
	start := min(opts.Offset(), total)
	end := min(start+opts.Limit, total)
	return domainvillas.SearchResult{Items: matches[start:end], Total: total}, nil
}

type imageRepo struct{ u *Unit }

func (r imageRepo) ByID(ctx context.Context, villaID domainvillas.VillaID, id domainvillas.ImageID) (*domainvillas.Image, error) {
	var out *domainvillas.Image
	r.u.store.read(func(s *state) {
		if img, ok := s.images[id]; ok && img.VillaID == villaID {
			out = cloneImage(img)
		}
	})
	if out == nil {
		return nil, domainvillas.ErrImageNotFound
	}
	return out, nil
}

func (r imageRepo) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainvillas.Image, error) {
	var out []*domainvillas.Image
	r.u.store.read(func(s *state) {
		for _, img := range s.images {
			if img.VillaID == villaID {
				out = append(out, cloneImage(img))
			}
		}
	})
	domainvillas.SortImages(out)
	return out, nil
}

func (r imageRepo) Save(ctx context.Context, image *domainvillas.Image) error {
	if image.ObjectKey == "" {
		return domainvillas.ErrImageKeyRequired
	}
	stored := cloneImage(image)
	return r.u.stage(op{apply: func(s *state) { s.images[stored.ID] = stored }})
}

func (r imageRepo) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainvillas.ImageID) error {
	return r.u.stage(op{
		check: func(s *state) error {
			if img, ok := s.images[id]; !ok || img.VillaID != villaID {
				return domainvillas.ErrImageNotFound
			}
			return nil
		},
		apply: func(s *state) { delete(s.images, id) },
	})
}

func (r imageRepo) UnsetPrimary(ctx context.Context, villaID domainvillas.VillaID, keep domainvillas.ImageID) error {
	return r.u.stage(op{apply: func(s *state) {
		for id, img := range s.images {
			if img.VillaID == villaID && id != keep && img.Primary {
				updated := cloneImage(img)
				updated.Primary = false
				s.images[id] = updated
			}
		}
	}})
}
