// Package demo runs skinned meshes through a headless frame loop.
package demo

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-rig/internal/config"
	"github.com/Faultbox/midgard-rig/internal/engine/animation"
	"github.com/Faultbox/midgard-rig/internal/engine/rig"
	"github.com/Faultbox/midgard-rig/internal/engine/scene"
	"github.com/Faultbox/midgard-rig/internal/engine/workqueue"
	"github.com/Faultbox/midgard-rig/internal/logger"
	"github.com/Faultbox/midgard-rig/pkg/math"
)

// Demo is one headless session.
type Demo struct {
	cfg        *config.Config
	configPath string
	log        *zap.Logger

	queue  *workqueue.Queue
	graph  *scene.Graph
	rigs   []*rig.RigGeometry
	player *animation.Player
	stats  *Stats

	toggles chan bool
	frame   uint64
}

// New builds the scene: cfg.Demo.Instances chains, each under its own
// skeleton, all sharing one mesh and influence map. configPath is watched
// for changes when cfg.Demo.WatchConfig is set.
func New(cfg *config.Config, configPath string) (*Demo, error) {
	log := logger.Named("demo")
	log.Info("initializing demo",
		zap.Int("instances", cfg.Demo.Instances),
		zap.Int("segments", cfg.Demo.Segments),
		zap.Bool("use_thread", cfg.Skinning.UseThread),
		zap.Int("workers", cfg.Skinning.Workers))

	queue, err := workqueue.New(cfg.Skinning.Workers, cfg.Skinning.QueueSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create work queue: %w", err)
	}

	d := &Demo{
		cfg:        cfg,
		configPath: configPath,
		log:        log,
		queue:      queue,
		graph:      scene.NewGraph(),
		player:     animation.NewPlayer(),
		stats:      NewStats(),
		toggles:    make(chan bool, 1),
	}

	chain := DefaultChainConfig()
	if cfg.Demo.Segments > 0 {
		chain.Segments = cfg.Demo.Segments
	}
	mesh, infl, err := BuildChainMesh(chain)
	if err != nil {
		queue.Close()
		return nil, fmt.Errorf("failed to build mesh: %w", err)
	}

	proto := rig.New(rig.Options{
		Name:      "chain0",
		Queue:     queue,
		UseThread: cfg.Skinning.UseThread,
	})
	proto.SetSourceGeometry(mesh)
	proto.SetInfluenceMap(infl)

	for i := 0; i < max(cfg.Demo.Instances, 1); i++ {
		skel, err := BuildSkeleton(fmt.Sprintf("skeleton%d", i), chain)
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("failed to build skeleton: %w", err)
		}
		r := proto
		if i > 0 {
			r = proto.Clone()
		}
		place := scene.NewTransform(fmt.Sprintf("place%d", i), math.Translate(float32(i)*2, 0, 0))
		d.graph.Attach(d.graph.Root(), place)
		d.graph.Attach(place, skel)
		d.graph.Attach(skel, r)
		d.rigs = append(d.rigs, r)

		bones := skel.Bones()
		for j, b := range bones {
			switch {
			case j == 0:
				d.player.Add(animation.NewClipTrack(b, rootClip, true))
			case j == len(bones)-1:
				// The tip curls in once and holds the pose.
				d.player.Add(animation.NewBoneTween(b, math.Vec3{X: 1}, 0, tipCurl, 1, nil))
			default:
				period := 1.5 + 0.25*float32(i+j)
				d.player.Add(animation.NewSwing(b, math.Vec3{Z: 1}, 0.6, period))
			}
		}
	}

	log.Info("demo initialized", zap.Int("vertices", mesh.VertexCount()), zap.Int("rigs", len(d.rigs)))
	return d, nil
}

const tipCurl = 0.8

// rootClip bobs and turns the root bone over two seconds.
var rootClip = &animation.Clip{
	Rotations: []animation.RotKey{
		{Time: 0, Rotation: math.QuatIdentity()},
		{Time: 1, Rotation: math.QuatFromAxisAngle(math.Vec3{Y: 1}, 0.5)},
		{Time: 2, Rotation: math.QuatIdentity()},
	},
	Translations: []animation.VecKey{
		{Time: 0, Value: math.Vec3{}},
		{Time: 1, Value: math.Vec3{Y: 0.2}},
		{Time: 2, Value: math.Vec3{}},
	},
}

// Run steps frames until cfg.Demo.Frames is reached or ctx is done.
func (d *Demo) Run(ctx context.Context) error {
	if d.cfg.Demo.WatchConfig && d.configPath != "" {
		go d.watch(ctx)
	}

	var tick <-chan time.Time
	if fps := d.cfg.Demo.TargetFPS; fps > 0 {
		t := time.NewTicker(time.Second / time.Duration(fps))
		defer t.Stop()
		tick = t.C
	}

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := lastTime

	d.log.Info("starting frame loop", zap.Int("frames", d.cfg.Demo.Frames))
	for d.cfg.Demo.Frames == 0 || d.frame < uint64(d.cfg.Demo.Frames) {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return nil
		}

		select {
		case on := <-d.toggles:
			d.SetUseThread(on)
		default:
		}

		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now
		if tick == nil {
			dt = 1.0 / 60
		}
		d.Step(float32(dt))

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			d.log.Debug("fps",
				zap.Int("count", frameCount),
				zap.Uint64("draws", d.stats.Draws),
				zap.Int("queue_pending", d.queue.Pending()),
				zap.Float32("max_radius", maxRadius(d.rigs)))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	d.log.Info("frame loop finished",
		zap.Uint64("frames", d.frame),
		zap.Uint64("draws", d.stats.Draws),
		zap.Uint64("vertices", d.stats.Vertices),
		zap.Int("tracks", d.player.Len()))
	return nil
}

// Step advances animation by dt seconds and runs one frame of the
// update, bounds and draw passes.
func (d *Demo) Step(dt float32) {
	d.frame++
	d.player.Update(dt)
	d.graph.Traverse(d.frame, scene.UpdatePass, nil)
	d.graph.Traverse(d.frame, scene.BoundsPass, nil)
	d.graph.Traverse(d.frame, scene.DrawPass, d.stats)
}

// SetUseThread switches every rig between queued and inline skinning.
func (d *Demo) SetUseThread(on bool) {
	for _, r := range d.rigs {
		r.SetUseThread(on)
	}
	d.log.Info("skinning dispatch changed", zap.Bool("use_thread", on))
}

// Stats returns the draw counters.
func (d *Demo) Stats() *Stats { return d.stats }

// Rigs returns the rigged instances.
func (d *Demo) Rigs() []*rig.RigGeometry { return d.rigs }

// Frame returns the number of frames stepped.
func (d *Demo) Frame() uint64 { return d.frame }

// Close releases the rigs and stops the workers.
func (d *Demo) Close() {
	d.log.Info("closing demo")
	for _, r := range d.rigs {
		r.Close()
	}
	d.queue.Close()
}

// watch forwards skinning toggles from config file edits to the frame loop.
func (d *Demo) watch(ctx context.Context) {
	err := config.Watch(ctx, d.configPath, func(c *config.Config) {
		// Only the newest setting matters.
		select {
		case <-d.toggles:
		default:
		}
		d.toggles <- c.Skinning.UseThread
	})
	if err != nil {
		d.log.Warn("config watch stopped", zap.Error(err))
	}
}

// maxRadius returns the largest rig bound, a cheap size check for logs.
func maxRadius(rigs []*rig.RigGeometry) float32 {
	var r float32
	for _, g := range rigs {
		r = max(r, g.Bound().Radius)
	}
	return r
}
