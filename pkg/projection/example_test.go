package projection_test

import (
	"fmt"

	"github.com/paulmach/orb"

	"github.com/matzehuels/popmap/pkg/projection"
)

func ExamplePath_D() {
	p := projection.New(projection.WithTranslate(280, 250))
	path := projection.NewPath(p)

	fmt.Println(path.D(orb.LineString{{8, 0}, {8, 10}}))
	// Output:
	// M280,250L280,230.242
}
