package bus

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

// routingModel tracks request subscribers in subscription order plus the
// member that should receive the next request.
type routingModel struct {
	members []*Ref
	next    *Ref
}

func (m *routingModel) add(r *Ref) {
	if slices.Contains(m.members, r) {
		return
	}
	m.members = append(m.members, r)
	if m.next == nil {
		m.next = r
	}
}

func (m *routingModel) remove(r *Ref) {
	i := slices.Index(m.members, r)
	if i < 0 {
		return
	}
	if m.next == r {
		if len(m.members) == 1 {
			m.next = nil
		} else {
			m.next = m.members[(i+1)%len(m.members)]
		}
	}
	m.members = slices.Delete(m.members, i, i+1)
}

func (m *routingModel) send() *Ref {
	target := m.next
	if target == nil {
		return nil
	}
	i := slices.Index(m.members, target)
	m.next = m.members[(i+1)%len(m.members)]
	return target
}

func (m *routingModel) view() []*Ref {
	if m.next == nil {
		return nil
	}
	i := slices.Index(m.members, m.next)
	return slices.Concat(m.members[i:], m.members[:i])
}

func TestBus_Property_RandomInterleavings(t *testing.T) {
	for seed := range uint64(200) {
		t.Run(fmt.Sprintf("seed=%d", seed), func(t *testing.T) {
			rnd := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
			b := New(Options{})
			model := &routingModel{}

			sender := NewRef("sender")
			b.Register(sender)

			pool := make([]*Ref, 6)
			for i := range pool {
				pool[i] = NewRef(fmt.Sprintf("a%d", i))
			}
			pick := func() *Ref { return pool[rnd.IntN(len(pool))] }

			for step := range 300 {
				switch op := rnd.IntN(10); {
				case op < 2:
					r := pick()
					b.Register(r)
				case op < 4:
					r := pick()
					b.Unregister(r)
					model.remove(r)
				case op < 6:
					r := pick()
					err := b.SubscribeRequest(askType, r)
					if b.IsRegistered(r) {
						require.NoError(t, err)
						model.add(r)
					} else {
						require.ErrorIs(t, err, ErrNotRegistered)
					}
				default:
					before := make(map[*Ref]int, len(pool))
					for _, r := range pool {
						before[r] = b.MailboxLen(r)
					}

					want := model.send()
					ok, err := b.SendRequest(&ask{N: step}, sender)
					require.NoError(t, err)
					require.Equal(t, want != nil, ok, "step %d", step)

					for _, r := range pool {
						delta := b.MailboxLen(r) - before[r]
						if r == want {
							require.Equal(t, 1, delta, "step %d: %s should have received", step, r)
						} else {
							require.Equal(t, 0, delta, "step %d: %s should not have received", step, r)
						}
					}
				}

				require.Equal(t, model.view(), b.RequestSubscribers(askType), "step %d", step)
			}
		})
	}
}
