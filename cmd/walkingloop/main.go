// Command walkingloop wires C1-C5 and the ioboundary stand-in bus into a
// standalone process, for running the walking core without a real robot
// bus attached (spec.md §1: the transport, UI, and phone-app control
// channel are all out of scope; this command plugs in-memory stand-ins
// instead).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/edaniels/golog"

	"go.viam.com/utils"

	"go.viam.com/heicub/config"
	"go.viam.com/heicub/interpolation"
	"go.viam.com/heicub/ioboundary"
	"go.viam.com/heicub/kinematics"
	"go.viam.com/heicub/patterngen"
	"go.viam.com/heicub/walking"
)

// Arguments for the command.
type Arguments struct {
	PatternGeneratorConfig string `flag:"pg_config,usage=path to pattern generator YAML config"`
	KinematicsConfig       string `flag:"kinematics_config,usage=path to kinematics YAML config"`
	IOConfig               string `flag:"io_config,usage=path to I/O YAML config"`
}

var logger = golog.NewDevelopmentLogger("walkingloop")

func main() {
	var argsParsed Arguments
	if err := utils.ParseFlags(os.Args, &argsParsed); err != nil {
		log.Fatal(err)
	}

	pgCfg := config.DefaultPatternGeneratorConfig()
	if argsParsed.PatternGeneratorConfig != "" {
		var err error
		pgCfg, err = config.LoadPatternGeneratorConfig(argsParsed.PatternGeneratorConfig)
		if err != nil {
			log.Fatal(err)
		}
	}

	model := kinematics.NewModel(kinematics.DefaultModelDescription())

	kCfg := config.KinematicsConfig{
		StepTol:      1e-6,
		Lambda:       0.01,
		NumSteps:     50,
		NInit:        2,
		ComBodyPoint: []float64{0, 0, -pgCfg.HCom},
	}
	if argsParsed.KinematicsConfig != "" {
		loaded, err := config.LoadKinematicsConfig(argsParsed.KinematicsConfig)
		if err != nil {
			log.Fatal(err)
		}
		kCfg = *loaded
	}
	ik := kinematics.NewIK(model, kCfg)

	ioCfg := config.DefaultIOConfig()
	if argsParsed.IOConfig != "" {
		loaded, err := config.LoadIOConfig(argsParsed.IOConfig)
		if err != nil {
			log.Fatal(err)
		}
		ioCfg = loaded
	}
	actuatedIndices := ioCfg.ActuatedIndices()

	initial := patterngen.PatternGeneratorState{
		ComHeight:   pgCfg.HCom,
		FootY:       -pgCfg.FootDistance / 2,
		SupportFoot: patterngen.Left,
	}
	pg := patterngen.NewNMPCGenerator(*pgCfg, initial)

	left := interpolation.FootPose{Y: interpolation.Derivatives{Pos: pgCfg.FootDistance / 2}}
	right := interpolation.FootPose{Y: interpolation.Derivatives{Pos: -pgCfg.FootDistance / 2}}
	ip := interpolation.NewInterpolator(*pgCfg, pgCfg.HCom, left, right)

	minAngles := make([]float64, len(actuatedIndices))
	maxAngles := make([]float64, len(actuatedIndices))
	for i := range minAngles {
		minAngles[i] = -2 * 3.14159
		maxAngles[i] = 2 * 3.14159
	}
	bus := ioboundary.NewInMemoryJointBus(minAngles, maxAngles)
	status := ioboundary.NewStatusBox()
	statusPub := loggingStatusPublisher{logger: logger}
	vel := zeroVelocityReader{}

	loop := walking.NewLoop(logger, status, bus, bus, vel, statusPub, pg, ip, model, ik, actuatedIndices)
	loop.OnWarning(func(kind ioboundary.WarningKind) {
		logger.Warnw("walking loop warning", "kind", kind.String())
	})

	ctx, cancel := context.WithCancel(context.Background())

	// Stand-in for the out-of-scope external command channel: this process
	// has no UI, so it drives NOT_CONNECTED -> NOT_INITIALIZED -> INITIALIZED
	// itself instead of waiting on commands.
	status.Set(ioboundary.NotInitialized)
	status.Set(ioboundary.Initialized)

	estop := make(chan struct{})
	runDone := make(chan struct{})
	utils.PanicCapturingGo(func() {
		defer close(runDone)
		loop.Run(ctx, bus.NotifySnapshots(), estop)
	})

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt)
	signal.Notify(shutdown, syscall.SIGTERM)
	<-shutdown
	logger.Info("shutting down gracefully")
	cancel()
	<-runDone
}

type zeroVelocityReader struct{}

func (zeroVelocityReader) Read(ctx context.Context) (ioboundary.VelocityReference, bool) {
	return ioboundary.VelocityReference{}, false
}

type loggingStatusPublisher struct {
	logger golog.Logger
}

func (p loggingStatusPublisher) PublishError(kind ioboundary.ErrorKind) {
	p.logger.Errorw("walking loop error", "kind", kind.String())
}

func (p loggingStatusPublisher) PublishWarning(kind ioboundary.WarningKind) {
	p.logger.Warnw("walking loop warning", "kind", kind.String())
}
