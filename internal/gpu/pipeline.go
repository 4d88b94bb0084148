//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// pipelines holds the compiled shader modules, layouts and compute pipelines
// for every kernel. All of it is created once per device.
type pipelines struct {
	device hal.Device

	modules []hal.ShaderModule

	// Sort: group 0 is the data buffer, group 1 the per-step params.
	sortDataLayout   hal.BindGroupLayout
	sortParamsLayout hal.BindGroupLayout
	sortPipeLayout   hal.PipelineLayout

	squaresLayout     hal.BindGroupLayout
	squaresPipeLayout hal.PipelineLayout

	blurLayout     hal.BindGroupLayout
	blurPipeLayout hal.PipelineLayout

	compute [kernelCount]hal.ComputePipeline
}

func uniformEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding: binding, Visibility: gputypes.ShaderStageCompute,
		Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
	}
}

func storageEntry(binding uint32, readOnly bool) gputypes.BindGroupLayoutEntry {
	typ := gputypes.BufferBindingTypeStorage
	if readOnly {
		typ = gputypes.BufferBindingTypeReadOnlyStorage
	}
	return gputypes.BindGroupLayoutEntry{
		Binding: binding, Visibility: gputypes.ShaderStageCompute,
		Buffer: &gputypes.BufferBindingLayout{Type: typ},
	}
}

// createPipelines builds every pipeline on device. On error, everything
// created so far is destroyed.
func createPipelines(device hal.Device) (_ *pipelines, err error) {
	p := &pipelines{device: device}
	defer func() {
		if err != nil {
			slogger().Warn("gpu: pipeline creation failed", "err", err)
			p.destroy()
		}
	}()

	bitonic, err := p.module("bitonic", bitonicShaderSource)
	if err != nil {
		return nil, err
	}
	squares, err := p.module("squares", squaresShaderSource)
	if err != nil {
		return nil, err
	}
	blur, err := p.module("blur", blurShaderSource)
	if err != nil {
		return nil, err
	}

	if p.sortDataLayout, err = p.bindLayout("sort_data_layout", storageEntry(0, false)); err != nil {
		return nil, err
	}
	if p.sortParamsLayout, err = p.bindLayout("sort_params_layout", uniformEntry(0)); err != nil {
		return nil, err
	}
	if p.sortPipeLayout, err = p.pipeLayout("sort_pipe_layout", p.sortDataLayout, p.sortParamsLayout); err != nil {
		return nil, err
	}

	if p.squaresLayout, err = p.bindLayout("squares_layout", uniformEntry(0), storageEntry(1, false)); err != nil {
		return nil, err
	}
	if p.squaresPipeLayout, err = p.pipeLayout("squares_pipe_layout", p.squaresLayout); err != nil {
		return nil, err
	}

	if p.blurLayout, err = p.bindLayout("blur_layout",
		uniformEntry(0), storageEntry(1, true), storageEntry(2, false), storageEntry(3, false),
	); err != nil {
		return nil, err
	}
	if p.blurPipeLayout, err = p.pipeLayout("blur_pipe_layout", p.blurLayout); err != nil {
		return nil, err
	}

	stages := []struct {
		kernel Kernel
		module hal.ShaderModule
		layout hal.PipelineLayout
	}{
		{KernelSortLocal, bitonic, p.sortPipeLayout},
		{KernelSortGlobal, bitonic, p.sortPipeLayout},
		{KernelSquares, squares, p.squaresPipeLayout},
		{KernelBlurH, blur, p.blurPipeLayout},
		{KernelBlurV, blur, p.blurPipeLayout},
	}
	for _, s := range stages {
		pipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
			Label: s.kernel.String() + "_pipeline", Layout: s.layout,
			Compute: hal.ComputeState{Module: s.module, EntryPoint: s.kernel.EntryPoint()},
		})
		if err != nil {
			return nil, fmt.Errorf("create %s pipeline: %w", s.kernel, err)
		}
		p.compute[s.kernel] = pipeline
	}
	return p, nil
}

func (p *pipelines) module(label, source string) (hal.ShaderModule, error) {
	m, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label,
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", label, err)
	}
	p.modules = append(p.modules, m)
	return m, nil
}

func (p *pipelines) bindLayout(label string, entries ...gputypes.BindGroupLayoutEntry) (hal.BindGroupLayout, error) {
	l, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{Label: label, Entries: entries})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return l, nil
}

func (p *pipelines) pipeLayout(label string, layouts ...hal.BindGroupLayout) (hal.PipelineLayout, error) {
	l, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{Label: label, BindGroupLayouts: layouts})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	return l, nil
}

// destroy releases everything that was created, in reverse order.
func (p *pipelines) destroy() {
	if p == nil || p.device == nil {
		return
	}
	d := p.device
	for i, cp := range p.compute {
		if cp != nil {
			d.DestroyComputePipeline(cp)
			p.compute[i] = nil
		}
	}
	for _, pl := range []hal.PipelineLayout{p.blurPipeLayout, p.squaresPipeLayout, p.sortPipeLayout} {
		if pl != nil {
			d.DestroyPipelineLayout(pl)
		}
	}
	for _, bl := range []hal.BindGroupLayout{p.blurLayout, p.squaresLayout, p.sortParamsLayout, p.sortDataLayout} {
		if bl != nil {
			d.DestroyBindGroupLayout(bl)
		}
	}
	for _, m := range p.modules {
		d.DestroyShaderModule(m)
	}
	*p = pipelines{}
}
