// Command play clusters the bundled places and prints the clusters of the
// world at zoom 2.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	cluster "github.com/MadAppGang/supercluster"
	"github.com/MadAppGang/supercluster/internal/source"
)

func main() {
	points, err := source.ReadFile("./testdata/places.json")
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	opts := cluster.DefaultOptions()
	opts.Radius = 60
	opts.MaxZoom = 3
	opts.Extent = 256
	opts.Log = true
	c, err := cluster.New(opts)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	if _, err := c.Load(points); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	result, err := c.GetClusters([4]float64{-180, -85, 180, 85}, 2)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	fmt.Printf("Getting points: length %v\n", len(result))

	resultJSON, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(resultJSON))

	tile, _ := c.GetTile(0, 0, 0)
	if tile != nil {
		fmt.Printf("Tile 0/0/0: %d features\n", len(tile.Features))
	}
}
