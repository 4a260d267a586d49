package config_test

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/leadfield/config"
)

// ExampleResolve shows the minimal EEG sphere-model job and the
// InvalidConfiguration failure when neither modality is requested.
func ExampleResolve() {
	in := config.DefaultSettings()
	in.SrcName, in.MeasName, in.SolName = "src.json", "meas.json", "fwd.db"
	in.MRIHeadIdent = true
	in.IncludeEEG = true
	in.Mindist = 5 // mm

	spec, err := config.Resolve(in)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("mindist=%.3f m frame=%s model=%s\n", spec.MinDist(), spec.CoordFrame(), spec.EEG().ModelName)

	in.IncludeEEG = false
	_, err = config.Resolve(in)
	fmt.Println(errors.Is(err, config.ErrInvalidConfiguration))

	// Output:
	// mindist=0.005 m frame=head model=Default
	// true
}
