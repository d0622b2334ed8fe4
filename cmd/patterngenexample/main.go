// Command patterngenexample drives C1/C2/C3 standalone, without C4/C5 or
// any ioboundary transport, and prints the resulting per-tick CoM, ZMP and
// support-foot trace to a table. Useful for eyeballing a walking pattern without a robot.
package main

import (
	"log"
	"os"

	"github.com/edaniels/golog"
	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/utils"

	"go.viam.com/heicub/config"
	"go.viam.com/heicub/interpolation"
	"go.viam.com/heicub/patterngen"
)

// Arguments for the command.
type Arguments struct {
	PatternGeneratorConfig string  `flag:"pg_config,usage=path to pattern generator YAML config"`
	Steps                  int     `flag:"steps,usage=number of preview ticks to solve"`
	Vx                     float64 `flag:"vx,usage=body-frame forward velocity reference"`
	Vy                     float64 `flag:"vy,usage=body-frame lateral velocity reference"`
	Vyaw                   float64 `flag:"vyaw,usage=body-frame turn-rate reference"`
}

var logger = golog.NewDevelopmentLogger("patterngenexample")

func main() {
	var argsParsed Arguments
	argsParsed.Steps = 20
	argsParsed.Vx = 0.1
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

	initial := patterngen.PatternGeneratorState{
		ComHeight:   pgCfg.HCom,
		FootY:       -pgCfg.FootDistance / 2,
		SupportFoot: patterngen.Left,
	}
	pg := patterngen.NewNMPCGenerator(*pgCfg, initial)
	pg.SetVelocityReference(argsParsed.Vx, argsParsed.Vy, argsParsed.Vyaw)

	left := interpolation.FootPose{Y: interpolation.Derivatives{Pos: pgCfg.FootDistance / 2}}
	right := interpolation.FootPose{Y: interpolation.Derivatives{Pos: -pgCfg.FootDistance / 2}}
	ip := interpolation.NewInterpolator(*pgCfg, pgCfg.HCom, left, right)

	t := table.NewWriter()
	t.AppendHeader(table.Row{"tick", "com_x", "com_y", "zmp_x", "zmp_y", "support"})

	prevSupport := initial.SupportFoot
	for i := 0; i < argsParsed.Steps; i++ {
		if err := pg.Solve(); err != nil {
			logger.Errorw("solve failed", "tick", i, "err", err)
			break
		}
		jerkX, jerkY := pg.Jerks()
		var jx, jy float64
		if len(jerkX) > 0 {
			jx, jy = jerkX[0], jerkY[0]
		}
		pg.Simulate(jx, jy)
		newState := pg.Update()

		if newState.SupportFoot != prevSupport {
			fx, fy, fq := pg.FootPlacements()
			if len(fx) > 0 {
				swingFoot := interpolation.Left
				if newState.SupportFoot == patterngen.Left {
					swingFoot = interpolation.Right
				}
				ip.BeginSwing(swingFoot, fx[0], fy[0], fq[0])
			}
		}
		prevSupport = newState.SupportFoot

		var sample interpolation.Sample
		for tick := 0; tick < ip.Intervals(); tick++ {
			sample = ip.InterpolatePerTick(jx, jy)
		}

		t.AppendRow([]interface{}{
			i, sample.ComX.Pos, sample.ComY.Pos, sample.ZmpX, sample.ZmpY, newState.SupportFoot.String(),
		})
	}

	os.Stdout.WriteString(t.Render() + "\n")
}
