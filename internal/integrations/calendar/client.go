package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/m04kA/DrivingSchool-BookingService/internal/domain"
	"github.com/m04kA/DrivingSchool-BookingService/pkg/types"
)

// Client клиент Google Calendar: источник внешней занятости и события уроков
type Client struct {
	service    *gcal.Service
	calendarID string
	timeout    time.Duration
	log        Logger
}

// NewClient создает клиента календаря
// opts задают авторизацию и, при необходимости, адрес API
func NewClient(ctx context.Context, calendarID string, timeout time.Duration, log Logger, opts ...option.ClientOption) (*Client, error) {
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create calendar service: %v", ErrUnavailable, err)
	}

	return &Client{
		service:    service,
		calendarID: calendarID,
		timeout:    timeout,
		log:        log,
	}, nil
}

// ListBusyIntervals возвращает события календаря, пересекающие [from, to)
// Ошибка upstream всегда возвращается как ErrUnavailable и никогда не превращается в пустой список.
// События на весь день разбираются в часовом поясе from.
func (c *Client) ListBusyIntervals(ctx context.Context, from, to time.Time) ([]domain.BusyInterval, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	call := c.service.Events.List(c.calendarID).
		SingleEvents(true).
		ShowDeleted(false).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		OrderBy("startTime")

	intervals := make([]domain.BusyInterval, 0)
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, event := range page.Items {
			if !blocksTime(event) {
				continue
			}

			interval, err := toBusyInterval(event, from.Location())
			if err != nil {
				c.log.Warn("Calendar: skipping event id=%s: %v", event.Id, err)
				continue
			}
			intervals = append(intervals, interval)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list events: %v", ErrUnavailable, err)
	}

	return intervals, nil
}

// CreateEvent создает событие урока и возвращает его ID
func (c *Client) CreateEvent(ctx context.Context, req *EventRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	event := &gcal.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       &gcal.EventDateTime{DateTime: req.Start.Format(time.RFC3339), TimeZone: req.TimeZone},
		End:         &gcal.EventDateTime{DateTime: req.End.Format(time.RFC3339), TimeZone: req.TimeZone},
		ExtendedProperties: &gcal.EventExtendedProperties{
			Private: map[string]string{bookingIDProperty: strconv.FormatInt(req.BookingID, 10)},
		},
	}

	created, err := c.service.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: insert event for booking %d: %v", ErrUnavailable, req.BookingID, err)
	}

	return created.Id, nil
}

// DeleteEvent удаляет событие; уже удалённое событие считается успехом
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.service.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusGone) {
			c.log.Info("Calendar: event id=%s already removed", eventID)
			return nil
		}
		return fmt.Errorf("%w: delete event %s: %v", ErrUnavailable, eventID, err)
	}

	return nil
}

// blocksTime отбрасывает отменённые, «свободные» и собственные события сервиса
func blocksTime(event *gcal.Event) bool {
	if event.Status == "cancelled" || event.Transparency == "transparent" {
		return false
	}
	if event.ExtendedProperties != nil {
		if _, ok := event.ExtendedProperties.Private[bookingIDProperty]; ok {
			return false
		}
	}
	return true
}

func toBusyInterval(event *gcal.Event, loc *time.Location) (domain.BusyInterval, error) {
	if event.Start == nil || event.End == nil {
		return domain.BusyInterval{}, fmt.Errorf("%w: missing start or end", ErrInvalidEvent)
	}

	start, err := parseEventTime(event.Start, loc)
	if err != nil {
		return domain.BusyInterval{}, err
	}
	end, err := parseEventTime(event.End, loc)
	if err != nil {
		return domain.BusyInterval{}, err
	}
	if !start.Before(end) {
		return domain.BusyInterval{}, fmt.Errorf("%w: start %s is not before end %s", ErrInvalidEvent, start, end)
	}

	id := event.Id
	return domain.BusyInterval{
		Start:  start,
		End:    end,
		ID:     &id,
		Source: domain.BusySourceExternal,
	}, nil
}

// parseEventTime событие со временем содержит RFC3339, событие на весь день только дату
func parseEventTime(t *gcal.EventDateTime, loc *time.Location) (time.Time, error) {
	if t.DateTime != "" {
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: datetime %q: %v", ErrInvalidEvent, t.DateTime, err)
		}
		return parsed, nil
	}

	if t.Date != "" {
		date, err := types.ParseDate(t.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
		return types.ComposeInstant(date, 0, loc), nil
	}

	return time.Time{}, fmt.Errorf("%w: empty event time", ErrInvalidEvent)
}
