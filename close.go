package nndescent

// Close returns the memory reserved with the resource controller.
// The graph must not be used afterwards.
func (g *Graph) Close() error {
	if g == nil {
		return nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	g.opts.rc.ReleaseMemory(g.reserved)
	g.reserved = 0
	return nil
}
