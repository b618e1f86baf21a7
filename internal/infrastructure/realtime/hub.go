// Package realtime entrega a los clientes el estado completo de un tema (items, movements,
// state...) cada vez que cambia. Con Redis, los avisos de cambio viajan por pub/sub y cada
// instancia recarga y difunde a sus propios suscriptores; sin Redis la difusión es local.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Inventario-rooftop/internal/domain"
)

// DefaultBuffer mensajes pendientes por suscriptor antes de descartarlo.
const DefaultBuffer = 8

// Loader carga el estado completo actual de un tema.
type Loader func(ctx context.Context) (any, error)

// Message estado completo de un tema en un instante.
type Message struct {
	Topic string          `json:"topic"`
	Data  json.RawMessage `json:"data"`
	At    time.Time       `json:"at"`
}

type subscriber struct {
	ch   chan Message
	once sync.Once
}

func (s *subscriber) close() {
	s.once.Do(func() { close(s.ch) })
}

type topic struct {
	mu     sync.Mutex // serializa carga + envío para que cada suscriptor vea estados en orden
	loader Loader
	subs   map[*subscriber]struct{}
}

// Hub registro de temas y suscriptores.
type Hub struct {
	client  *redis.Client // nil = modo local
	channel string
	buffer  int
	log     zerolog.Logger

	mu     sync.RWMutex
	topics map[string]*topic
	ready  chan struct{}
}

// NewHub crea el hub. client puede ser nil (una sola instancia, sin Redis).
func NewHub(client *redis.Client, channel string, log zerolog.Logger) *Hub {
	h := &Hub{
		client:  client,
		channel: channel,
		buffer:  DefaultBuffer,
		log:     log,
		topics:  make(map[string]*topic),
		ready:   make(chan struct{}),
	}
	if client == nil {
		close(h.ready)
	}
	return h
}

// Register asocia un tema con la función que carga su estado completo.
func (h *Hub) Register(name string, loader Loader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.topics[name] = &topic{loader: loader, subs: make(map[*subscriber]struct{})}
}

// Ready se cierra cuando el hub está escuchando avisos de cambio.
func (h *Hub) Ready() <-chan struct{} { return h.ready }

// Notify avisa que los temas cambiaron. Con Redis publica en el canal compartido; sin Redis
// difunde directamente a los suscriptores locales.
func (h *Hub) Notify(ctx context.Context, topics ...string) error {
	for _, t := range topics {
		if h.client == nil {
			h.broadcast(ctx, t)
			continue
		}
		if err := h.client.Publish(ctx, h.channel, t).Err(); err != nil {
			return fmt.Errorf("publicar cambio de %s: %w", t, err)
		}
	}
	return nil
}

// Run escucha el canal de Redis hasta que ctx termine. Sin Redis solo espera a ctx.
func (h *Hub) Run(ctx context.Context) error {
	if h.client == nil {
		<-ctx.Done()
		h.closeAll()
		return nil
	}

	pubsub := h.client.Subscribe(ctx, h.channel)
	defer func() { _ = pubsub.Close() }()

	// Esperar confirmación de la suscripción
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("suscribir a %s: %w", h.channel, err)
	}
	close(h.ready)
	h.log.Info().Str("channel", h.channel).Msg("escuchando cambios en tiempo real")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case msg, ok := <-ch:
			if !ok {
				h.closeAll()
				return nil
			}
			h.broadcast(ctx, msg.Payload)
		}
	}
}

// Subscribe registra un suscriptor del tema. El primer mensaje del canal es siempre el
// estado completo actual. Un suscriptor que no consume a tiempo se descarta (su canal se
// cierra) para que el cliente se reconecte y resincronice. cancel es idempotente.
func (h *Hub) Subscribe(ctx context.Context, name string) (<-chan Message, func(), error) {
	h.mu.RLock()
	t, ok := h.topics[name]
	h.mu.RUnlock()
	if !ok {
		return nil, nil, fmt.Errorf("tema %q: %w", name, domain.ErrNotFound)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	msg, err := load(ctx, name, t.loader)
	if err != nil {
		return nil, nil, err
	}
	sub := &subscriber{ch: make(chan Message, h.buffer)}
	sub.ch <- msg
	t.subs[sub] = struct{}{}

	cancel := func() {
		t.mu.Lock()
		delete(t.subs, sub)
		t.mu.Unlock()
		sub.close()
	}
	return sub.ch, cancel, nil
}

// HasTopic indica si el tema está registrado.
func (h *Hub) HasTopic(name string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.topics[name]
	return ok
}

// SubscriberCount cantidad de suscriptores activos del tema.
func (h *Hub) SubscriberCount(name string) int {
	h.mu.RLock()
	t, ok := h.topics[name]
	h.mu.RUnlock()
	if !ok {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

func (h *Hub) broadcast(ctx context.Context, name string) {
	h.mu.RLock()
	t, ok := h.topics[name]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug().Str("topic", name).Msg("aviso para tema no registrado")
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.subs) == 0 {
		return
	}
	msg, err := load(ctx, name, t.loader)
	if err != nil {
		h.log.Warn().Err(err).Str("topic", name).Msg("no se pudo cargar el estado para difundir")
		return
	}
	for sub := range t.subs {
		select {
		case sub.ch <- msg:
		default:
			delete(t.subs, sub)
			sub.close()
			h.log.Warn().Str("topic", name).Msg("suscriptor lento descartado")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, t := range h.topics {
		t.mu.Lock()
		for sub := range t.subs {
			delete(t.subs, sub)
			sub.close()
		}
		t.mu.Unlock()
	}
}

func load(ctx context.Context, name string, loader Loader) (Message, error) {
	v, err := loader(ctx)
	if err != nil {
		return Message{}, fmt.Errorf("cargar %s: %w", name, err)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, fmt.Errorf("serializar %s: %w", name, err)
	}
	return Message{Topic: name, Data: data, At: time.Now()}, nil
}
