package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	domimage "github.com/daveytran/dom-to-image-more"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	outputFile string
	format     string
	width      float64
	height     float64
	scale      float64
	bgcolor    string
	quality    float64
	selector   string
	cacheBust  bool
	ignoreCSS  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "domsnap <input.html>",
		Short: "Render an HTML document into a static image",
		Long:  "Converts an HTML file into a self-contained SVG, PNG or JPEG snapshot by cloning the document tree, inlining styles and resources, and rasterizing the result",
		Args:  cobra.ExactArgs(1),
		Run:   run,
	}

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: input name with format extension)")
	rootCmd.Flags().StringVarP(&format, "format", "f", "png", "Output format: svg, png, jpeg")
	rootCmd.Flags().Float64Var(&width, "width", 0, "Override root width in CSS pixels")
	rootCmd.Flags().Float64Var(&height, "height", 0, "Override root height in CSS pixels")
	rootCmd.Flags().Float64Var(&scale, "scale", 1, "Rasterization scale multiplier")
	rootCmd.Flags().StringVar(&bgcolor, "bgcolor", "", "Solid backdrop fill, e.g. #ffffff")
	rootCmd.Flags().Float64Var(&quality, "quality", 1, "JPEG encode quality, 0-1")
	rootCmd.Flags().StringVar(&selector, "root", "body", "Tag of the element to snapshot (body or html)")
	rootCmd.Flags().BoolVar(&cacheBust, "cache-bust", false, "Append a cache-defeating query parameter to fetched URLs")
	rootCmd.Flags().BoolVar(&ignoreCSS, "ignore-css-errors", false, "Skip inaccessible stylesheets instead of failing")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	input := args[0]
	f, err := os.Open(input)
	if err != nil {
		red.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	doc, err := html.Parse(f)
	f.Close()
	if err != nil {
		red.Printf("Error: cannot parse %s: %v\n", input, err)
		os.Exit(1)
	}
	node := findElement(doc, selector)
	if node == nil {
		red.Printf("Error: no <%s> element in %s\n", selector, input)
		os.Exit(1)
	}

	opts := domimage.Options{
		Width:               width,
		Height:              height,
		Scale:               scale,
		BGColor:             bgcolor,
		Quality:             quality,
		CacheBust:           cacheBust,
		IgnoreCSSRuleErrors: ignoreCSS,
	}

	out := outputFile
	if out == "" {
		out = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}

	ctx := context.Background()
	var data []byte
	switch format {
	case "svg":
		markup, err := domimage.ToSVG(ctx, node, opts)
		if err != nil {
			red.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		data = []byte(markup)
	case "png":
		data, err = domimage.ToPNG(ctx, node, opts)
	case "jpeg", "jpg":
		data, err = domimage.ToJPEG(ctx, node, opts)
	default:
		red.Printf("Error: unknown format %q\n", format)
		os.Exit(1)
	}
	if err != nil {
		red.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(out, data, 0644); err != nil {
		red.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	green.Printf("✓ wrote %s (%d bytes)\n", out, len(data))
}

func findElement(doc *html.Node, tag string) *html.Node {
	a := atom.Lookup([]byte(tag))
	var find func(n *html.Node) *html.Node
	find = func(n *html.Node) *html.Node {
		if n.Type == html.ElementNode && (n.DataAtom == a || n.Data == tag) {
			return n
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if hit := find(ch); hit != nil {
				return hit
			}
		}
		return nil
	}
	return find(doc)
}
