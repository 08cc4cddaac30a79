package booking

import (
	"context"
	"encoding/json"
	"time"

	"github.com/marwilliams/reservo/internal/resource"
)

// Service is the booking engine's single external entry point: it
// confirms the referenced resource exists, returning ErrResourceNotFound
// if not, and then delegates to the Writer or Availability.
type Service interface {
	CreateSingleBooking(ctx context.Context, resourceID string, start, end time.Time, metadata json.RawMessage) (*Booking, *Conflict, error)
	CreateRecurringBooking(ctx context.Context, resourceID string, start, end time.Time, rrule string, exceptions []Exception, metadata json.RawMessage) (*Booking, *Conflict, error)
	GetByID(ctx context.Context, id string) (*Booking, error)
	Availability(ctx context.Context, resourceID string, from, to time.Time, minSlotMinutes int) (resourceName string, slots []Slot, busyCount int, err error)
}

type service struct {
	repo         Repository
	writer       *Writer
	availability *Availability
	resources    resource.Service
}

func NewService(repo Repository, writer *Writer, availability *Availability, resources resource.Service) Service {
	return &service{repo: repo, writer: writer, availability: availability, resources: resources}
}

func (s *service) requireResource(ctx context.Context, resourceID string) (*resource.Resource, error) {
	res, err := s.resources.GetByID(ctx, resourceID)
	if err != nil {
		if err == resource.ErrNotFound {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return res, nil
}

func (s *service) CreateSingleBooking(ctx context.Context, resourceID string, start, end time.Time, metadata json.RawMessage) (*Booking, *Conflict, error) {
	if _, err := s.requireResource(ctx, resourceID); err != nil {
		return nil, nil, err
	}
	return s.writer.CreateSingleBooking(ctx, resourceID, start, end, metadata)
}

func (s *service) CreateRecurringBooking(ctx context.Context, resourceID string, start, end time.Time, rrule string, exceptions []Exception, metadata json.RawMessage) (*Booking, *Conflict, error) {
	if _, err := s.requireResource(ctx, resourceID); err != nil {
		return nil, nil, err
	}
	return s.writer.CreateRecurringBooking(ctx, resourceID, start, end, rrule, exceptions, metadata)
}

func (s *service) GetByID(ctx context.Context, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Availability(ctx context.Context, resourceID string, from, to time.Time, minSlotMinutes int) (string, []Slot, int, error) {
	res, err := s.requireResource(ctx, resourceID)
	if err != nil {
		return "", nil, 0, err
	}
	slots, busyCount, err := s.availability.Availability(ctx, resourceID, from, to, minSlotMinutes)
	if err != nil {
		return "", nil, 0, err
	}
	return res.Name, slots, busyCount, nil
}
