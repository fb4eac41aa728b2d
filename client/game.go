package client

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"sync"
	"time"

	"github.com/ebiten/emoji"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"dockside/relay"
	"dockside/utils"
	"dockside/world"
)

const (
	pixelsPerUnit = 16.0
	spriteScale   = 0.25 // emoji sprites are 128px

	// ChatBubbleWindow is how long a player's latest utterance floats above
	// their head.
	ChatBubbleWindow = 5 * time.Second

	maxChatLines = 8
)

// Game is the top-down viewer: it runs the local simulation, drives the
// broadcast pipeline, reconciles remote players and draws the lot.
type Game struct {
	cfg *utils.Config
	id  string

	registry    *world.Registry
	broadcaster *world.Broadcaster
	selector    *world.VisibilitySelector
	reconcilers map[string]*world.Reconciler
	poses       map[string]world.Pose

	local *LocalPlayer
	chat  *ChatLog
	gems  *GemField
	score int

	ownChat   string
	ownChatAt time.Time
	debug     bool

	mu      sync.Mutex
	session *relay.Session
}

func NewGame(cfg *utils.Config, id string) *Game {
	g := &Game{
		cfg:         cfg,
		id:          id,
		registry:    world.NewRegistry(),
		reconcilers: make(map[string]*world.Reconciler),
		poses:       make(map[string]world.Pose),
		local:       NewLocalPlayer(cfg.Player),
		chat:        &ChatLog{},
		gems:        NewGemField(),
	}
	g.broadcaster = world.NewBroadcaster(g)
	g.selector = world.NewVisibilitySelector(g.registry, cfg.Game.RenderDistance, cfg.Game.MaxVisiblePlayers)
	return g
}

// Connect dials the relay in the background. On failure the game keeps
// running disconnected and shows the waiting indicator; the relay client is
// responsible for transport-level retry, not us.
func (g *Game) Connect(ctx context.Context, cfg relay.Config) {
	sess, err := relay.Dial(ctx, cfg, g.registry, g.chat.Append)
	if err != nil {
		log.Printf("%v", err)
		return
	}
	g.mu.Lock()
	g.session = sess
	g.mu.Unlock()
}

// Disconnect ends the session, clearing the registry with it.
func (g *Game) Disconnect() {
	g.mu.Lock()
	sess := g.session
	g.session = nil
	g.mu.Unlock()
	if sess != nil {
		sess.Close()
	}
}

// SendMovement implements world.MovementSender, dropping payloads while no
// session is up.
func (g *Game) SendMovement(pos world.Vec3, yaw float64, quat world.Quat, anim world.Animation) {
	if sess := g.currentSession(); sess != nil {
		sess.SendMovement(pos, yaw, quat, anim)
	}
}

func (g *Game) currentSession() *relay.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session
}

func (g *Game) connected() bool {
	sess := g.currentSession()
	return sess != nil && sess.Connected()
}

func (g *Game) playerCount() int {
	if sess := g.currentSession(); sess != nil {
		return sess.PeerCount() + 1
	}
	return 1
}

func (g *Game) Update() error {
	dt := 1.0 / float64(ebiten.MaxTPS())

	if line, ok := g.chat.HandleInput(); ok {
		g.ownChat = line
		g.ownChatAt = time.Now()
		if sess := g.currentSession(); sess != nil {
			sess.SendChat(line)
		}
	}

	if !g.chat.Open() {
		g.local.Update(dt)
		if inpututil.IsKeyJustPressed(ebiten.Key1) {
			g.broadcaster.Trigger(world.AnimWave)
		}
		if inpututil.IsKeyJustPressed(ebiten.Key2) {
			g.broadcaster.Trigger(world.AnimDance)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF3) {
		g.debug = !g.debug
	}

	g.broadcaster.Tick(
		g.local.Position, g.local.Yaw, g.local.Quat(), g.local.VerticalVel,
		time.Duration(dt*float64(time.Second)))

	for _, gem := range g.gems.Update(g.local.Position) {
		g.score++
		if sess := g.currentSession(); sess != nil {
			sess.SendCollect(gem.ID)
		}
		g.chat.Append(relay.ChatMessage{
			System:  true,
			Message: g.cfg.Player.Username + " collected a gem!",
			Time:    time.Now(),
		})
	}

	g.reconcileVisible(dt)
	return nil
}

// reconcileVisible steps one reconciler per visible remote id. Ids that drop
// out of the visible set lose their reconciler; if they come back they snap
// in fresh.
func (g *Game) reconcileVisible(dt float64) {
	visible := g.selector.Tick(g.local.Position)

	inSet := make(map[string]bool, len(visible))
	for _, id := range visible {
		inSet[id] = true
	}
	for id := range g.reconcilers {
		if !inSet[id] {
			delete(g.reconcilers, id)
			delete(g.poses, id)
		}
	}

	for _, id := range visible {
		state, ok := g.registry.Get(id)
		if !ok {
			continue
		}
		rec := g.reconcilers[id]
		if rec == nil {
			rec = world.NewReconciler()
			g.reconcilers[id] = rec
		}
		g.poses[id] = rec.Step(state, dt)
	}
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 164, G: 178, B: 191, A: 255})
	now := time.Now()

	for _, gem := range g.gems.Remaining() {
		g.drawSprite(screen, emoji.Image("💎"), gem.Position)
	}

	for id, pose := range g.poses {
		state, ok := g.registry.Get(id)
		if !ok {
			continue
		}
		g.drawSprite(screen, emoji.Image("🙂"), pose.Position)
		x, y := g.worldToScreen(pose.Position)
		label := fmt.Sprintf("%s\n%s", displayName(state.Username), pose.Animation)
		ebitenutil.DebugPrintAt(screen, label, int(x)-16, int(y)+18)
		if state.ChatText != "" && now.Sub(state.ChatAt) < ChatBubbleWindow {
			ebitenutil.DebugPrintAt(screen, state.ChatText, int(x)-16, int(y)-30)
		}
	}

	g.drawSprite(screen, emoji.Image("😀"), g.local.Position)
	lx, ly := g.worldToScreen(g.local.Position)
	ebitenutil.DebugPrintAt(screen, displayName(g.cfg.Player.Username), int(lx)-16, int(ly)+18)
	if g.ownChat != "" && now.Sub(g.ownChatAt) < ChatBubbleWindow {
		ebitenutil.DebugPrintAt(screen, g.ownChat, int(lx)-16, int(ly)-30)
	}

	ebitenutil.DebugPrint(screen, g.hudString())
	if chat := g.chat.Render(maxChatLines); chat != "" {
		ebitenutil.DebugPrintAt(screen, chat, 8, g.cfg.UI.Resolution.Y-16*(maxChatLines+2))
	}
	if !g.connected() {
		ebitenutil.DebugPrintAt(screen, "connecting to relay...", g.cfg.UI.Resolution.X/2-60, 8)
	}
	if g.debug {
		ebitenutil.DebugPrintAt(screen, networkDebugText(g.registry, now), g.cfg.UI.Resolution.X-320, 8)
	}
}

func (g *Game) hudString() string {
	return fmt.Sprintf("TPS: %0.2f FPS: %0.2f\nlobby: %s  players: %d\ngems: %d/%d  anim: %s",
		ebiten.CurrentTPS(), ebiten.CurrentFPS(),
		g.cfg.Game.Lobby, g.playerCount(),
		g.score, g.gems.Total(), g.broadcaster.Animation())
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.UI.Resolution.X, g.cfg.UI.Resolution.Y
}

// worldToScreen maps the x/z ground plane onto the screen, camera locked to
// the local player.
func (g *Game) worldToScreen(pos world.Vec3) (float64, float64) {
	cx := float64(g.cfg.UI.Resolution.X) / 2
	cy := float64(g.cfg.UI.Resolution.Y) / 2
	return cx + (pos.X-g.local.Position.X)*pixelsPerUnit,
		cy + (pos.Z-g.local.Position.Z)*pixelsPerUnit
}

func (g *Game) drawSprite(screen, sprite *ebiten.Image, pos world.Vec3) {
	x, y := g.worldToScreen(pos)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(spriteScale, spriteScale)
	w, h := sprite.Size()
	op.GeoM.Translate(x-float64(w)*spriteScale/2, y-float64(h)*spriteScale/2)
	screen.DrawImage(sprite, op)
}

// displayName truncates long usernames for on-screen labels.
func displayName(name string) string {
	runes := []rune(name)
	if len(runes) > 12 {
		return string(runes[:12]) + "..."
	}
	return name
}
