package notifications

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/simolima/sportlink-demo-sub001/internal/models"
)

const (
	groupWindow        = 24 * time.Hour
	messageGroupWindow = 30 * time.Minute
)

var groupableTypes = map[string]bool{
	TypeNewFollower:     true,
	TypeNewApplication:  true,
	TypeMessageReceived: true,
}

// Entry is either an Item or a Group in a grouped listing
type Entry interface {
	Timestamp() time.Time
}

// Item is a notification with its resolved destination
type Item struct {
	models.Notification
	Destination *string `json:"destination"`
}

// Timestamp implements Entry
func (i Item) Timestamp() time.Time { return i.CreatedAt }

// NewItem resolves the destination of n
func NewItem(n models.Notification) Item {
	return Item{Notification: n, Destination: Destination(n.Type, n.Metadata)}
}

// NewItems resolves destinations for a list of notifications
func NewItems(list []models.Notification) []Item {
	items := make([]Item, len(list))
	for i, n := range list {
		items[i] = NewItem(n)
	}
	return items
}

// Group collapses similar notifications into one entry
type Group struct {
	ID                 string    `json:"id"`
	Type               string    `json:"type"`
	NotificationType   string    `json:"notificationType"`
	Notifications      []Item    `json:"notifications"`
	Title              string    `json:"title"`
	Message            string    `json:"message"`
	Count              int       `json:"count"`
	HasUnread          bool      `json:"hasUnread"`
	Destination        *string   `json:"destination"`
	HasSameDestination bool      `json:"hasSameDestination"`
	CreatedAt          time.Time `json:"createdAt"`
	GroupKey           string    `json:"groupKey"`
}

// Timestamp implements Entry
func (g Group) Timestamp() time.Time { return g.CreatedAt }

func groupKey(n models.Notification) string {
	switch n.Type {
	case TypeNewFollower:
		return TypeNewFollower
	case TypeNewApplication:
		if id := n.Metadata.String("opportunityId"); id != "" {
			return TypeNewApplication + "_" + id
		}
		return TypeNewApplication
	case TypeMessageReceived:
		if id := n.Metadata.FirstString("fromUserId", "conversationId"); id != "" {
			return TypeMessageReceived + "_" + id
		}
		return TypeMessageReceived
	default:
		return n.Type + "_" + n.ID
	}
}

func withinWindow(n, reference time.Time, notificationType string) bool {
	diff := reference.Sub(n)
	if notificationType == TypeMessageReceived {
		return diff <= messageGroupWindow
	}
	return diff <= groupWindow
}

// GroupNotifications sorts newest first and merges groupable notifications
// that share a key and fall within the window of the group's newest member.
// Singletons are returned as plain items.
func GroupNotifications(list []models.Notification) []Entry {
	if len(list) == 0 {
		return []Entry{}
	}

	sorted := make([]models.Notification, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})

	var keys []string
	groups := make(map[string][]models.Notification)
	add := func(key string, n models.Notification) {
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], n)
	}

	for _, n := range sorted {
		if !groupableTypes[n.Type] {
			add("single_"+n.ID, n)
			continue
		}

		key := groupKey(n)
		if existing := groups[key]; len(existing) > 0 {
			if !withinWindow(n.CreatedAt, existing[0].CreatedAt, n.Type) {
				add(key+"_"+n.ID, n)
				continue
			}
		}
		add(key, n)
	}

	result := make([]Entry, 0, len(keys))
	for _, key := range keys {
		members := groups[key]
		if len(members) == 1 {
			result = append(result, NewItem(members[0]))
			continue
		}
		result = append(result, buildGroup(key, members))
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp().After(result[j].Timestamp())
	})
	return result
}

func buildGroup(key string, members []models.Notification) Group {
	items := NewItems(members)

	hasUnread := false
	var dest *string
	distinct := 0
	for _, item := range items {
		if !item.Read {
			hasUnread = true
		}
		// Members without a destination do not break agreement.
		if item.Destination == nil || *item.Destination == "" {
			continue
		}
		if dest == nil {
			dest = item.Destination
			distinct = 1
		} else if *dest != *item.Destination {
			distinct++
		}
	}
	same := distinct == 1
	if !same {
		dest = nil
	}

	notificationType := members[0].Type
	title, message := groupContent(members, notificationType)

	return Group{
		ID:                 "group_" + key,
		Type:               "group",
		NotificationType:   notificationType,
		Notifications:      items,
		Title:              title,
		Message:            message,
		Count:              len(members),
		HasUnread:          hasUnread,
		Destination:        dest,
		HasSameDestination: same,
		CreatedAt:          members[0].CreatedAt,
		GroupKey:           key,
	}
}

func collectNames(members []models.Notification, keys ...string) []string {
	var names []string
	for _, n := range members {
		if name := n.Metadata.FirstString(keys...); name != "" {
			names = append(names, name)
			if len(names) == 3 {
				break
			}
		}
	}
	return names
}

func groupContent(members []models.Notification, notificationType string) (string, string) {
	count := len(members)
	md := members[0].Metadata

	switch notificationType {
	case TypeNewFollower:
		names := collectNames(members, "fromUserName", "followerName")
		preview := fmt.Sprintf("%d utenti", count)
		if len(names) > 0 {
			preview = strings.Join(names, ", ")
			if count > 3 {
				preview += fmt.Sprintf(" e altri %d", count-3)
			}
		}
		return fmt.Sprintf("%d nuovi follower", count), preview + " hanno iniziato a seguirti"

	case TypeNewApplication:
		title := md.FirstString("opportunityTitle", "announcementTitle")
		if title == "" {
			title = "un'opportunità"
		}
		return fmt.Sprintf("%d nuove candidature", count),
			fmt.Sprintf("Hai ricevuto %d candidature per \"%s\"", count, title)

	case TypeMessageReceived:
		sender := md.String("fromUserName")
		if sender == "" {
			sender = "Un utente"
		}
		return fmt.Sprintf("%d nuovi messaggi", count),
			fmt.Sprintf("Hai %d nuovi messaggi da %s", count, sender)

	default:
		return members[0].Title, members[0].Message
	}
}
