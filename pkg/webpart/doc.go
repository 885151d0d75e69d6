// Package webpart hosts the population map as a page component.
//
// A [Component] offers two capabilities to whatever shell embeds it: render
// into a page [Region], and describe its configurable properties. [GeoMap]
// is the population map component.
//
// A region is owned by at most one live render. Rendering returns a
// [Handle]; the region stays busy until the handle is disposed:
//
//	page := webpart.NewPage()
//	region, _ := page.Region("main")
//	h, err := geomap.Render(ctx, region)
//	if err != nil {
//	    return err // REGION_BUSY
//	}
//	defer h.Dispose()
//	if h.Err() != nil {
//	    // sources failed; region holds the failure panel
//	}
//	w.Write(region.Content())
package webpart
