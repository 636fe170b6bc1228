package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/fame-api/internal/models"
	"github.com/fame-api/internal/realtime"
	"github.com/fame-api/internal/repository"
	"github.com/fame-api/internal/storage"
	"github.com/fame-api/internal/timing"
	"github.com/fame-api/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// showOrderService is the concrete implementation of ShowOrderService
type showOrderService struct {
	repos     *repository.Repositories
	publisher realtime.Publisher
	log       zerolog.Logger
	clock     func() time.Time
}

func newShowOrderService(repos *repository.Repositories, publisher realtime.Publisher, log zerolog.Logger) *showOrderService {
	return &showOrderService{
		repos:     repos,
		publisher: publisher,
		log:       log.With().Str("service", "show_order").Logger(),
		clock:     now,
	}
}

// snapshot is everything stored for one event
type snapshot struct {
	event     *models.Event
	artists   []models.Artist
	cues      []models.Cue
	emergency *models.EmergencyBroadcast
}

// load reads an event and its documents concurrently
func (s *showOrderService) load(ctx context.Context, eventID string, withEmergency bool) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		event, err := s.repos.Event.GetByID(gctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			return fmt.Errorf("event %s: %w", eventID, ErrNotFound)
		}
		snap.event = event
		return nil
	})
	g.Go(func() error {
		artists, err := s.repos.Artist.List(gctx, eventID)
		snap.artists = artists
		return err
	})
	g.Go(func() error {
		cues, err := s.repos.Cue.List(gctx, eventID)
		snap.cues = cues
		return err
	})
	if withEmergency {
		g.Go(func() error {
			b, err := s.repos.Emergency.Get(gctx, eventID)
			snap.emergency = b
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// resolveDate picks the show date to work on. An empty request means today
// when today is a show date, otherwise the first show date.
func (s *showOrderService) resolveDate(event *models.Event, requested string) (string, error) {
	if requested != "" {
		if !event.HasShowDate(requested) {
			return "", invalid(fmt.Sprintf("%s is not a show date of this event", requested))
		}
		return requested, nil
	}
	today := s.clock().Format("2006-01-02")
	if event.HasShowDate(today) {
		return today, nil
	}
	if len(event.ShowDates) > 0 {
		return event.ShowDates[0], nil
	}
	return "", nil
}

// onDate reports whether an item with the given slot belongs to date. Cues
// without a date run on every show date.
func onDate(order *int, itemDate *string, date string, undatedMatches bool) bool {
	if order == nil {
		return false
	}
	if itemDate == nil {
		return undatedMatches
	}
	return *itemDate == date
}

// sameDate reports whether two items can share a live board. An undated
// item clashes with every date.
func sameDate(a, b *string) bool {
	if a == nil || b == nil {
		return true
	}
	return *a == *b
}

func artistItem(a *models.Artist, fallback time.Duration) models.ShowItem {
	d := timing.ArtistDuration(a)
	if d == 0 {
		d = fallback
	}
	item := models.ShowItem{
		Type:               models.ShowItemArtist,
		ID:                 a.ID,
		Title:              a.ArtistName,
		PerformanceStatus:  normalizeStatus(a.PerformanceStatus),
		Duration:           d,
		DurationSeconds:    int(d / time.Second),
		RehearsalCompleted: a.RehearsalCompleted,
	}
	if a.PerformanceOrder != nil {
		item.PerformanceOrder = *a.PerformanceOrder
	}
	return item
}

func cueItem(c *models.Cue) models.ShowItem {
	d := timing.CueDuration(c)
	item := models.ShowItem{
		Type:               models.ShowItemCue,
		ID:                 c.ID,
		Title:              c.Title,
		PerformanceStatus:  normalizeStatus(c.PerformanceStatus),
		Duration:           d,
		DurationSeconds:    int(d / time.Second),
		RehearsalCompleted: true,
	}
	if c.PerformanceOrder != nil {
		item.PerformanceOrder = *c.PerformanceOrder
	}
	return item
}

func normalizeStatus(st models.ArtistStatus) models.ArtistStatus {
	if st == "" {
		return models.StatusNotStarted
	}
	return st
}

// items builds the running order of one date, sorted by slot
func (snap *snapshot) items(date string) []models.ShowItem {
	fallback := time.Duration(snap.event.Timing.DefaultPerformanceDuration) * time.Minute
	var items []models.ShowItem
	for i := range snap.artists {
		a := &snap.artists[i]
		if onDate(a.PerformanceOrder, a.PerformanceDate, date, false) {
			items = append(items, artistItem(a, fallback))
		}
	}
	for i := range snap.cues {
		c := &snap.cues[i]
		if onDate(c.PerformanceOrder, c.PerformanceDate, date, true) {
			items = append(items, cueItem(c))
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PerformanceOrder < items[j].PerformanceOrder
	})
	return items
}

// Get returns the running order of a date with its timeline and lint issues
func (s *showOrderService) Get(ctx context.Context, eventID, date string) (*models.ShowOrder, error) {
	snap, err := s.load(ctx, eventID, false)
	if err != nil {
		return nil, err
	}
	date, err = s.resolveDate(snap.event, date)
	if err != nil {
		return nil, err
	}
	return s.build(snap, date)
}

func (s *showOrderService) build(snap *snapshot, date string) (*models.ShowOrder, error) {
	items := snap.items(date)

	var total time.Duration
	for _, item := range items {
		total += item.Duration
	}

	order := &models.ShowOrder{
		EventID:          snap.event.ID,
		Date:             date,
		Items:            items,
		Timeline:         []models.TimelineEntry{},
		TotalShowMinutes: total.Minutes(),
		TotalShowTime:    timing.FormatDuration(total),
		Issues:           validation.CheckShowOrderConsistency(items),
	}
	if order.Items == nil {
		order.Items = []models.ShowItem{}
	}
	if order.Issues == nil {
		order.Issues = []models.ConsistencyIssue{}
	}

	if date != "" {
		startClock := snap.event.Timing.ShowStartTime
		if startClock == "" {
			startClock = defaultShowStart
		}
		start, err := timing.ParseShowStart(date, startClock, nil)
		if err != nil {
			return nil, err
		}
		buffer := time.Duration(snap.event.Timing.BufferBetweenActs) * time.Minute
		order.Timeline = timing.BuildTimeline(start, items, buffer)
	}
	return order, nil
}

// Reorder stores a drag-and-drop result. Listed items get slots 1..n on date;
// items of that date missing from the list lose their slot.
func (s *showOrderService) Reorder(ctx context.Context, eventID, date string, refs []models.ShowItemRef) (*models.ShowOrder, error) {
	snap, err := s.load(ctx, eventID, false)
	if err != nil {
		return nil, err
	}
	if date == "" {
		return nil, invalid("date is required")
	}
	if date, err = s.resolveDate(snap.event, date); err != nil {
		return nil, err
	}

	artistSlots := make(map[string]int)
	cueSlots := make(map[string]int)
	var problems []string
	for i, ref := range refs {
		slot := i + 1
		switch ref.Type {
		case models.ShowItemArtist:
			if _, dup := artistSlots[ref.ID]; dup {
				problems = append(problems, fmt.Sprintf("artist %s is listed more than once", ref.ID))
			}
			artistSlots[ref.ID] = slot
		case models.ShowItemCue:
			if _, dup := cueSlots[ref.ID]; dup {
				problems = append(problems, fmt.Sprintf("cue %s is listed more than once", ref.ID))
			}
			cueSlots[ref.ID] = slot
		default:
			problems = append(problems, fmt.Sprintf("items[%d].type must be artist or cue", i))
		}
	}
	problems = append(problems, missingRefs(snap, artistSlots, cueSlots)...)
	if len(problems) > 0 {
		return nil, invalid(problems...)
	}

	ts := now()
	artists, err := s.repos.Artist.UpdateAll(ctx, eventID, func(list []models.Artist) error {
		seen := 0
		for i := range list {
			a := &list[i]
			if slot, ok := artistSlots[a.ID]; ok {
				seen++
				order, d := slot, date
				a.PerformanceOrder, a.PerformanceDate, a.UpdatedAt = &order, &d, ts
			} else if onDate(a.PerformanceOrder, a.PerformanceDate, date, false) {
				a.PerformanceOrder, a.UpdatedAt = nil, ts
			}
		}
		if seen != len(artistSlots) {
			return fmt.Errorf("an artist was removed while reordering: %w", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cues, err := s.repos.Cue.UpdateAll(ctx, eventID, func(list []models.Cue) error {
		seen := 0
		for i := range list {
			c := &list[i]
			if slot, ok := cueSlots[c.ID]; ok {
				seen++
				order, d := slot, date
				c.PerformanceOrder, c.PerformanceDate, c.UpdatedAt = &order, &d, ts
			} else if onDate(c.PerformanceOrder, c.PerformanceDate, date, true) {
				c.PerformanceOrder, c.UpdatedAt = nil, ts
			}
		}
		if seen != len(cueSlots) {
			return fmt.Errorf("a cue was removed while reordering: %w", ErrConflict)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	snap.artists, snap.cues = artists, cues
	order, err := s.build(snap, date)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("event_id", eventID).Str("date", date).Int("items", len(refs)).Msg("Show order updated")
	publish(ctx, s.publisher, s.log, realtime.ShowOrderUpdated, eventID, map[string]any{
		"date":  date,
		"items": refs,
	})
	return order, nil
}

func missingRefs(snap *snapshot, artistSlots, cueSlots map[string]int) []string {
	known := make(map[string]bool, len(snap.artists)+len(snap.cues))
	for _, a := range snap.artists {
		known["artist/"+a.ID] = true
	}
	for _, c := range snap.cues {
		known["cue/"+c.ID] = true
	}

	var problems []string
	for id := range artistSlots {
		if !known["artist/"+id] {
			problems = append(problems, fmt.Sprintf("artist %s does not exist", id))
		}
	}
	for id := range cueSlots {
		if !known["cue/"+id] {
			problems = append(problems, fmt.Sprintf("cue %s does not exist", id))
		}
	}
	sort.Strings(problems)
	return problems
}

// UpdateStatus moves an artist or cue through the performance states. Putting
// an item on stage completes whatever was on stage before on the same date.
func (s *showOrderService) UpdateStatus(ctx context.Context, eventID string, itemType models.ShowItemType, id string, st models.ArtistStatus) (*models.ShowItem, error) {
	if !models.ValidArtistStatuses[st] {
		return nil, invalid("performance_status must be one of: not_started, next_on_deck, next_on_stage, currently_on_stage, completed")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, fmt.Errorf("event %s: %w", eventID, ErrNotFound)
	}
	fallback := time.Duration(event.Timing.DefaultPerformanceDuration) * time.Minute

	onStage := st == models.StatusCurrentlyOnStage
	ts := now()

	var (
		item           *models.ShowItem
		targetDate     *string
		demotedArtists []models.Artist
		demotedCues    []models.Cue
	)

	updateArtists := func(target bool) error {
		_, err := s.repos.Artist.UpdateAll(ctx, eventID, func(list []models.Artist) error {
			changed := false
			demotedArtists = demotedArtists[:0]
			if target {
				item = nil
				for i := range list {
					if list[i].ID == id {
						targetDate = list[i].PerformanceDate
					}
				}
			}
			for i := range list {
				a := &list[i]
				switch {
				case target && a.ID == id:
					a.PerformanceStatus, a.UpdatedAt = st, ts
					it := artistItem(a, fallback)
					item = &it
					changed = true
				case onStage && a.PerformanceStatus == models.StatusCurrentlyOnStage && sameDate(a.PerformanceDate, targetDate):
					a.PerformanceStatus, a.UpdatedAt = models.StatusCompleted, ts
					demotedArtists = append(demotedArtists, *a)
					changed = true
				}
			}
			if !changed || (target && item == nil) {
				return storage.ErrSkipWrite
			}
			return nil
		})
		return err
	}
	updateCues := func(target bool) error {
		_, err := s.repos.Cue.UpdateAll(ctx, eventID, func(list []models.Cue) error {
			changed := false
			demotedCues = demotedCues[:0]
			if target {
				item = nil
				for i := range list {
					if list[i].ID == id {
						targetDate = list[i].PerformanceDate
					}
				}
			}
			for i := range list {
				c := &list[i]
				switch {
				case target && c.ID == id:
					c.PerformanceStatus, c.UpdatedAt = st, ts
					it := cueItem(c)
					item = &it
					changed = true
				case onStage && c.PerformanceStatus == models.StatusCurrentlyOnStage && sameDate(c.PerformanceDate, targetDate):
					c.PerformanceStatus, c.UpdatedAt = models.StatusCompleted, ts
					demotedCues = append(demotedCues, *c)
					changed = true
				}
			}
			if !changed || (target && item == nil) {
				return storage.ErrSkipWrite
			}
			return nil
		})
		return err
	}

	// The document holding the target goes first; a missing target leaves
	// both documents untouched.
	switch itemType {
	case models.ShowItemArtist:
		if err := updateArtists(true); err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("artist %s: %w", id, ErrNotFound)
		}
		if onStage {
			if err := updateCues(false); err != nil {
				return nil, err
			}
		}
	case models.ShowItemCue:
		if err := updateCues(true); err != nil {
			return nil, err
		}
		if item == nil {
			return nil, fmt.Errorf("cue %s: %w", id, ErrNotFound)
		}
		if onStage {
			if err := updateArtists(false); err != nil {
				return nil, err
			}
		}
	default:
		return nil, invalid("type must be artist or cue")
	}

	s.log.Info().
		Str("event_id", eventID).
		Str("item_type", string(itemType)).
		Str("item_id", id).
		Str("status", string(st)).
		Int("demoted", len(demotedArtists)+len(demotedCues)).
		Msg("Performance status changed")

	for i := range demotedArtists {
		publish(ctx, s.publisher, s.log, realtime.ArtistStatusChanged, eventID, artistPayload(&demotedArtists[i]))
	}
	for i := range demotedCues {
		publish(ctx, s.publisher, s.log, realtime.CueUpdated, eventID, cuePayload(&demotedCues[i], "status"))
	}
	payload := map[string]any{
		"type":               item.Type,
		"title":              item.Title,
		"performance_status": item.PerformanceStatus,
		"performance_order":  item.PerformanceOrder,
	}
	if item.Type == models.ShowItemArtist {
		payload["artist_id"] = item.ID
		payload["artist_name"] = item.Title
		publish(ctx, s.publisher, s.log, realtime.ArtistStatusChanged, eventID, payload)
	} else {
		payload["cue_id"] = item.ID
		payload["action"] = "status"
		publish(ctx, s.publisher, s.log, realtime.CueUpdated, eventID, payload)
	}
	return item, nil
}

// LiveBoard returns what is on stage now, what comes next and what is on deck
func (s *showOrderService) LiveBoard(ctx context.Context, eventID, date string) (*models.LiveBoard, error) {
	snap, err := s.load(ctx, eventID, true)
	if err != nil {
		return nil, err
	}
	date, err = s.resolveDate(snap.event, date)
	if err != nil {
		return nil, err
	}

	board := &models.LiveBoard{
		EventID:     eventID,
		Date:        date,
		Upcoming:    []models.ShowItem{},
		GeneratedAt: now(),
	}
	if snap.emergency != nil && snap.emergency.Active {
		board.Emergency = snap.emergency
	}

	var pending []models.ShowItem
	for _, item := range snap.items(date) {
		switch item.PerformanceStatus {
		case models.StatusCurrentlyOnStage:
			if board.Current == nil {
				it := item
				board.Current = &it
			}
		case models.StatusCompleted:
			board.Completed++
		default:
			pending = append(pending, item)
		}
	}

	board.NextOnStage = pick(pending, models.StatusNextOnStage, nil)
	board.NextOnDeck = pick(pending, models.StatusNextOnDeck, board.NextOnStage)
	for _, item := range pending {
		if isPicked(item, board.NextOnStage) || isPicked(item, board.NextOnDeck) {
			continue
		}
		board.Upcoming = append(board.Upcoming, item)
	}
	return board, nil
}

// pick returns the first pending item explicitly marked want, or else the
// first pending item that is not already taken.
func pick(pending []models.ShowItem, want models.ArtistStatus, taken *models.ShowItem) *models.ShowItem {
	for _, item := range pending {
		if item.PerformanceStatus == want && !isPicked(item, taken) {
			it := item
			return &it
		}
	}
	for _, item := range pending {
		if !isPicked(item, taken) {
			it := item
			return &it
		}
	}
	return nil
}

func isPicked(item models.ShowItem, picked *models.ShowItem) bool {
	return picked != nil && picked.Type == item.Type && picked.ID == item.ID
}
