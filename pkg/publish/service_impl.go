package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-publish/pkg/publish/objectkey"
)

// service implements the Service interface
type service struct {
	repository Repository
	store      BlobStore
	backend    string
	synth      Synthesizer
	voices     VoiceTable
	keys       objectkey.Generator
	hooks      *Hooks

	uploadConcurrency    int
	batchConcurrency     int
	synthesisConcurrency int
	defaultOwner         uuid.UUID
	now                  func() time.Time

	// commits are serialized across concurrently published units
	commitMu sync.Mutex
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the metadata repository
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore sets the artifact store; name identifies it in errors
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		s.backend = name
		s.store = store
	}
}

// WithSynthesizer sets the speech provider used for audiobooks
func WithSynthesizer(synth Synthesizer) Option {
	return func(s *service) {
		s.synth = synth
	}
}

// WithVoices sets the language to voice mapping
func WithVoices(voices VoiceTable) Option {
	return func(s *service) {
		s.voices = voices
	}
}

// WithKeyGenerator overrides the object key layout
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keys = gen
	}
}

// WithHooks registers lifecycle hooks
func WithHooks(hooks *Hooks) Option {
	return func(s *service) {
		s.hooks.Merge(hooks)
	}
}

// WithUploadConcurrency bounds the uploads in flight per unit
func WithUploadConcurrency(n int) Option {
	return func(s *service) {
		s.uploadConcurrency = n
	}
}

// WithBatchConcurrency bounds the units published at once by PublishBatch
func WithBatchConcurrency(n int) Option {
	return func(s *service) {
		s.batchConcurrency = n
	}
}

// WithSynthesisConcurrency bounds the provider calls in flight per unit
func WithSynthesisConcurrency(n int) Option {
	return func(s *service) {
		s.synthesisConcurrency = n
	}
}

// WithDefaultOwner sets the owner of decks published without an explicit owner
func WithDefaultOwner(id uuid.UUID) Option {
	return func(s *service) {
		s.defaultOwner = id
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *service) {
		s.now = now
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		voices:               DefaultVoiceTable(),
		keys:                 objectkey.NewRecommendedGenerator(),
		hooks:                &Hooks{},
		uploadConcurrency:    4,
		batchConcurrency:     2,
		synthesisConcurrency: 1,
		now:                  time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.store == nil {
		return nil, fmt.Errorf("blob store is required")
	}

	return s, nil
}

// plan is a validated unit ready to run through the remaining stages
type plan struct {
	unit      ContentUnit
	artifacts []Artifact
	// synthesize produces additional artifacts before anything is uploaded
	synthesize func(ctx context.Context) ([]Artifact, error)
	commit     func(ctx context.Context, res *Result) error
}

// tracker follows one unit through the state machine
type tracker struct {
	s     *service
	unit  ContentUnit
	stage Stage
}

func (t *tracker) enter(ctx context.Context, to Stage) {
	from := t.stage
	t.stage = to
	t.s.hooks.executeOnStageChange(ctx, t.unit, from, to)
}

func (t *tracker) fail(ctx context.Context, err error) error {
	ue := &UnitError{Unit: t.unit.String(), Stage: t.stage, Err: err}
	t.s.hooks.executeOnError(ctx, ue.Unit, t.stage, err)
	t.enter(ctx, StageFailed)
	return ue
}

// execute runs Validating -> (Synthesizing) -> Uploading -> CommittingMetadata -> Published.
// Metadata is committed only after every upload has returned successfully.
func (s *service) execute(ctx context.Context, dir string, validate func() (*plan, error)) (*Result, error) {
	t := &tracker{s: s, unit: ContentUnit{Dir: dir}}
	t.enter(ctx, StageValidating)

	p, err := validate()
	if err != nil {
		return nil, t.fail(ctx, err)
	}
	t.unit = p.unit

	if p.synthesize != nil {
		t.enter(ctx, StageSynthesizing)
		extra, err := p.synthesize(ctx)
		if err != nil {
			return nil, t.fail(ctx, err)
		}
		p.artifacts = append(p.artifacts, extra...)
	}

	res := &Result{Unit: p.unit}
	if len(p.artifacts) > 0 {
		t.enter(ctx, StageUploading)
		pub := NewBlobPublisher(s.store, s.backend, s.uploadConcurrency)
		pub.hooks = s.hooks
		if err := pub.PublishAll(ctx, p.artifacts); err != nil {
			return nil, t.fail(ctx, err)
		}
		for _, a := range p.artifacts {
			res.Keys = append(res.Keys, a.Key)
		}
	}

	t.enter(ctx, StageCommittingMetadata)
	s.commitMu.Lock()
	err = p.commit(ctx, res)
	s.commitMu.Unlock()
	if err != nil {
		return nil, t.fail(ctx, err)
	}

	t.enter(ctx, StagePublished)
	s.hooks.executeAfterCommit(ctx, res)
	return res, nil
}

func (s *service) writer() *MetadataWriter {
	w := NewMetadataWriter(s.repository)
	w.now = s.now
	return w
}

// resolveUnit parses the shared arguments and validates the folder.
func (s *service) resolveUnit(ct ContentType, req UnitRequest, layout Layout, dateRequired bool) (ContentUnit, *Folder, error) {
	unit := ContentUnit{Type: ct, Dir: req.Dir}

	if req.Pages < 0 {
		return unit, nil, &ValidationError{Err: fmt.Errorf("%w: page count %d is negative", ErrInvalidArgument, req.Pages)}
	}
	lang, err := ParseLanguage(req.Language)
	if err != nil {
		return unit, nil, &ValidationError{Err: fmt.Errorf("%w: %v", ErrInvalidArgument, err)}
	}
	level, err := ParseCEFRLevel(req.Level)
	if err != nil {
		return unit, nil, &ValidationError{Err: fmt.Errorf("%w: %v", ErrInvalidArgument, err)}
	}
	unit.Language = lang
	unit.Level = level
	unit.Topic = objectkey.TitleCase(req.Topic)

	switch {
	case req.Date != "":
		d, err := time.Parse(DateLayout, strings.TrimSpace(req.Date))
		if err != nil {
			return unit, nil, &ValidationError{Err: fmt.Errorf("%w: date %q must be YYYY-MM-DD", ErrInvalidArgument, req.Date)}
		}
		unit.CreatedAt = d
	case dateRequired:
		return unit, nil, &ValidationError{Err: fmt.Errorf("%w: date is required", ErrInvalidArgument)}
	default:
		unit.CreatedAt = s.now().UTC().Truncate(24 * time.Hour)
	}

	id, err := ParseIdentifier(req.Dir)
	if err != nil {
		return unit, nil, &ValidationError{Path: req.Dir, Err: err}
	}
	unit.ID = id

	folder, err := ValidateFolder(req.Dir, layout, req.Pages)
	if err != nil {
		return unit, nil, err
	}
	return unit, folder, nil
}

// key derives the storage key of an artifact of unit
func (s *service) key(unit ContentUnit, artifact string) (string, error) {
	key, err := s.keys.GenerateKey(unit.Coordinates(), artifact)
	if err != nil {
		return "", &ValidationError{Path: unit.Dir, Err: err}
	}
	return key, nil
}

func (s *service) fileArtifact(unit ContentUnit, name, path string) (Artifact, error) {
	key, err := s.key(unit, name)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Key: key, Path: path, MimeType: MimeTypeFor(name)}, nil
}

// PublishStory publishes a story folder
func (s *service) PublishStory(ctx context.Context, req StoryRequest) (*Result, error) {
	return s.execute(ctx, req.Dir, func() (*plan, error) {
		unit, folder, err := s.resolveUnit(ContentTypeStory, req.UnitRequest, StoryLayout, true)
		if err != nil {
			return nil, err
		}
		if req.RequirePreview && !folder.Has("preview.txt") {
			return nil, &ValidationError{Path: folder.Dir, Err: fmt.Errorf("%w: preview.txt", ErrMissingFile)}
		}
		title, err := storyTitle(unit, folder)
		if err != nil {
			return nil, err
		}
		preview, err := storyPreview(unit, folder)
		if err != nil {
			return nil, err
		}

		p := &plan{unit: unit}
		ctxArtifact, err := s.fileArtifact(unit, "context.txt", folder.Path("context.txt"))
		if err != nil {
			return nil, err
		}
		p.artifacts = append(p.artifacts, ctxArtifact)
		for _, pg := range folder.Pages {
			a, err := s.fileArtifact(unit, pg.Name, pg.Path)
			if err != nil {
				return nil, err
			}
			p.artifacts = append(p.artifacts, a)
		}

		rec := &StoryRecord{
			ID:          unit.ID.Int64(),
			Title:       title,
			Language:    unit.Language.Display(),
			Topic:       unit.Topic,
			Level:       unit.Level,
			PreviewText: preview,
			DateCreated: unit.CreatedAt,
			Pages:       len(folder.Pages),
		}
		p.commit = func(ctx context.Context, res *Result) error {
			if err := s.writer().WriteStory(ctx, rec); err != nil {
				return err
			}
			res.Inserted = true
			return nil
		}
		return p, nil
	})
}

// PublishNews publishes a news folder
func (s *service) PublishNews(ctx context.Context, req NewsRequest) (*Result, error) {
	return s.execute(ctx, req.Dir, func() (*plan, error) {
		unit, folder, err := s.resolveUnit(ContentTypeNews, req.UnitRequest, NewsLayout, true)
		if err != nil {
			return nil, err
		}
		title, err := readTrimmed(folder.Path("title.txt"))
		if err != nil {
			return nil, err
		}
		preview, err := readTrimmed(folder.Path("preview.txt"))
		if err != nil {
			return nil, err
		}

		p := &plan{unit: unit}
		for _, pg := range folder.Pages {
			a, err := s.fileArtifact(unit, pg.Name, pg.Path)
			if err != nil {
				return nil, err
			}
			p.artifacts = append(p.artifacts, a)
		}
		for _, name := range NewsLayout.Optional {
			if !folder.Has(name) {
				continue
			}
			a, err := s.fileArtifact(unit, name, folder.Path(name))
			if err != nil {
				return nil, err
			}
			p.artifacts = append(p.artifacts, a)
		}

		rec := &NewsRecord{
			ID:          unit.ID.Int64(),
			Title:       title,
			Language:    unit.Language.Display(),
			Topic:       unit.Topic,
			Level:       unit.Level,
			PreviewText: preview,
			DateCreated: unit.CreatedAt,
			Pages:       len(folder.Pages),
		}
		p.commit = func(ctx context.Context, res *Result) error {
			inserted, err := s.writer().WriteNews(ctx, rec)
			if err != nil {
				return err
			}
			res.Inserted = inserted
			return nil
		}
		return p, nil
	})
}

// PublishAudiobook publishes the narration of a story or news unit
func (s *service) PublishAudiobook(ctx context.Context, req AudiobookRequest) (*Result, error) {
	return s.execute(ctx, req.Dir, func() (*plan, error) {
		source, err := ParseContentType(req.SourceType)
		if err != nil || (source != ContentTypeStory && source != ContentTypeNews) {
			return nil, &ValidationError{Err: fmt.Errorf("%w: source type %q must be Story or News", ErrInvalidArgument, req.SourceType)}
		}
		tier, err := ParseTier(req.Tier)
		if err != nil {
			return nil, &ValidationError{Err: fmt.Errorf("%w: %v", ErrInvalidArgument, err)}
		}
		if req.Pages <= 0 {
			return nil, &ValidationError{Err: fmt.Errorf("%w: page count is required", ErrInvalidArgument)}
		}
		if !req.SkipSynthesis && s.synth == nil {
			return nil, &ValidationError{Err: fmt.Errorf("%w: no speech synthesizer configured", ErrInvalidArgument)}
		}

		layout := AudiobookTextLayout
		if req.SkipSynthesis {
			layout = AudiobookLayout
		}
		unit, folder, err := s.resolveUnit(ContentTypeAudiobook, req.UnitRequest, layout, true)
		if err != nil {
			return nil, err
		}
		unit.SourceType = source
		unit.Tier = tier

		keys := make([]string, len(folder.Pages))
		for i := range folder.Pages {
			if keys[i], err = s.key(unit, audiobookArtifactName(i)); err != nil {
				return nil, err
			}
		}

		p := &plan{unit: unit}
		if req.SkipSynthesis {
			for i, pg := range folder.Pages {
				if _, err := ReadAudiobookPage(pg.Path); err != nil {
					return nil, &ValidationError{Path: pg.Path, Err: err}
				}
				p.artifacts = append(p.artifacts, Artifact{Key: keys[i], Path: pg.Path, MimeType: "application/json"})
			}
		} else {
			p.synthesize = func(ctx context.Context) ([]Artifact, error) {
				synth := NewAudiobookSynthesizer(s.synth, s.voices, s.synthesisConcurrency)
				pages, err := synth.SynthesizePages(ctx, folder, unit.Language)
				if err != nil {
					return nil, err
				}
				if err := WriteAudiobookPages(folder.Dir, pages); err != nil {
					return nil, &ValidationError{Path: folder.Dir, Err: err}
				}
				artifacts := make([]Artifact, len(pages))
				for i := range pages {
					artifacts[i] = Artifact{
						Key:      keys[i],
						Path:     filepath.Join(folder.Dir, PageName(i, ".json")),
						MimeType: "application/json",
					}
				}
				return artifacts, nil
			}
		}

		rec := &AudiobookRecord{
			SourceType: source,
			SourceID:   unit.ID.Int64(),
			Tier:       tier,
			Pages:      len(folder.Pages),
			CreatedAt:  unit.CreatedAt,
		}
		p.commit = func(ctx context.Context, res *Result) error {
			if err := s.writer().WriteAudiobook(ctx, rec); err != nil {
				return err
			}
			res.Inserted = true
			return nil
		}
		return p, nil
	})
}

// PublishDeck publishes a flashcard deck folder. Decks have no blob artifacts.
func (s *service) PublishDeck(ctx context.Context, req DeckRequest) (*Result, error) {
	return s.execute(ctx, req.Dir, func() (*plan, error) {
		unitReq := UnitRequest{Dir: req.Dir, Language: req.Language, Level: req.Level, Topic: "Vocabulary", Date: req.Date}
		unit, folder, err := s.resolveUnit(ContentTypeFlashcardDeck, unitReq, DeckLayout, false)
		if err != nil {
			return nil, err
		}

		owner := s.defaultOwner
		if strings.TrimSpace(req.Owner) != "" {
			if owner, err = uuid.Parse(strings.TrimSpace(req.Owner)); err != nil {
				return nil, &ValidationError{Err: fmt.Errorf("%w: owner %q is not a UUID", ErrInvalidArgument, req.Owner)}
			}
		}
		if owner == uuid.Nil {
			return nil, &ValidationError{Err: fmt.Errorf("%w: deck owner is required", ErrInvalidArgument)}
		}

		deck, err := loadDeck(folder, unit, owner)
		if err != nil {
			return nil, err
		}
		cards, err := loadCards(folder)
		if err != nil {
			return nil, err
		}

		p := &plan{unit: unit}
		p.commit = func(ctx context.Context, res *Result) error {
			if err := s.writer().WriteDeck(ctx, deck, cards); err != nil {
				return err
			}
			res.Inserted = true
			res.DeckID = deck.ID
			res.Cards = len(cards)
			return nil
		}
		return p, nil
	})
}

// Synthesize generates page*.json for a folder of page*.md
func (s *service) Synthesize(ctx context.Context, req SynthesizeRequest) (int, error) {
	if s.synth == nil {
		return 0, &ValidationError{Err: fmt.Errorf("%w: no speech synthesizer configured", ErrInvalidArgument)}
	}
	lang, err := ParseLanguage(req.Language)
	if err != nil {
		return 0, &ValidationError{Err: fmt.Errorf("%w: %v", ErrInvalidArgument, err)}
	}
	folder, err := ValidateFolder(req.Dir, AudiobookTextLayout, 0)
	if err != nil {
		return 0, err
	}
	synth := NewAudiobookSynthesizer(s.synth, s.voices, s.synthesisConcurrency)
	pages, err := synth.SynthesizePages(ctx, folder, lang)
	if err != nil {
		return 0, err
	}
	if err := WriteAudiobookPages(folder.Dir, pages); err != nil {
		return 0, err
	}
	return len(pages), nil
}

func audiobookArtifactName(page int) string {
	return "audiobook_" + PageName(page, ".json")
}
