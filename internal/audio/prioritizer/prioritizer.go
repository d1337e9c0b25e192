// Package prioritizer orders competing sound requests and assigns them to a
// fixed pool of channels.
package prioritizer

import (
	"cmp"
	"slices"

	"github.com/zjrosen/partymix/internal/audio/domain"
)

// PriorityLookup resolves the declared priority of a sound definition.
// *bank.Bank satisfies it.
type PriorityLookup interface {
	Priority(id domain.SoundID) (domain.Priority, error)
}

// Prioritizer assigns channels from a pool of fixed capacity.
type Prioritizer struct {
	capacity int
}

// New returns a prioritizer for capacity channels. A negative capacity is
// treated as zero.
func New(capacity int) *Prioritizer {
	return &Prioritizer{capacity: max(capacity, 0)}
}

// Capacity returns the number of channels in the pool.
func (p *Prioritizer) Capacity() int { return p.capacity }

type ranked struct {
	priority domain.Priority
	sound    domain.PlayingSound
}

// PrioritizeChannels sorts sounds in place from lowest to highest priority
// and assigns channels to the highest-ranked entries that fit the pool.
//
// Sounds compare by definition priority, then by start time, so the more
// recent of two equal-priority sounds ranks higher. Entries equal on both
// keys keep their relative order.
//
// The first evicted entries of the sorted slice lose their channel
// (ChannelID is domain.Unassigned). Each remaining entry gets its rank among
// the granted entries, 0 being the lowest. An unknown sound id fails the
// whole pass before anything is modified.
func (p *Prioritizer) PrioritizeChannels(lookup PriorityLookup, sounds []domain.PlayingSound) (evicted int, err error) {
	if len(sounds) == 0 {
		return 0, nil
	}

	keyed := make([]ranked, len(sounds))
	for i, s := range sounds {
		prio, err := lookup.Priority(s.SoundID)
		if err != nil {
			return 0, err
		}
		keyed[i] = ranked{priority: prio, sound: s}
	}

	slices.SortStableFunc(keyed, func(a, b ranked) int {
		if c := cmp.Compare(a.priority, b.priority); c != 0 {
			return c
		}
		return cmp.Compare(a.sound.StartTime, b.sound.StartTime)
	})

	evicted = max(len(keyed)-p.capacity, 0)
	for i := range keyed {
		sounds[i] = keyed[i].sound
		if i < evicted {
			sounds[i].ChannelID = domain.Unassigned
			continue
		}
		sounds[i].ChannelID = i - evicted
	}
	return evicted, nil
}
