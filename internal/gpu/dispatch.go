//go:build !nogpu

package gpu

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrTimeout is returned when the GPU does not finish within the timeout.
var ErrTimeout = errors.New("gpu: timed out waiting for GPU")

// dispatchResources tracks per-call GPU resources for cleanup.
type dispatchResources struct {
	device     hal.Device
	buffers    []hal.Buffer
	bindGroups []hal.BindGroup
	cmdBuf     hal.CommandBuffer
	fence      hal.Fence
}

// cleanup destroys all tracked per-call resources.
func (r *dispatchResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
	}
	for _, g := range r.bindGroups {
		r.device.DestroyBindGroup(g)
	}
	for _, b := range r.buffers {
		r.device.DestroyBuffer(b)
	}
}

// sizedBuffer is a buffer together with its size in bytes.
type sizedBuffer struct {
	hal.Buffer
	size uint64
}

// buffer creates a tracked buffer.
func (r *dispatchResources) buffer(label string, size uint64, usage gputypes.BufferUsage) (sizedBuffer, error) {
	buf, err := r.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return sizedBuffer{}, fmt.Errorf("create %s buffer: %w", label, err)
	}
	r.buffers = append(r.buffers, buf)
	return sizedBuffer{Buffer: buf, size: size}, nil
}

// storage creates a storage buffer holding contents. The buffer can be
// copied from for readback.
func (r *dispatchResources) storage(queue hal.Queue, label string, contents []byte) (sizedBuffer, error) {
	buf, err := r.buffer(label, uint64(len(contents)),
		gputypes.BufferUsageStorage|gputypes.BufferUsageCopySrc|gputypes.BufferUsageCopyDst)
	if err != nil {
		return sizedBuffer{}, err
	}
	queue.WriteBuffer(buf.Buffer, 0, contents)
	return buf, nil
}

// uniform creates a uniform buffer holding params.
func (r *dispatchResources) uniform(queue hal.Queue, label string, params []byte) (sizedBuffer, error) {
	buf, err := r.buffer(label, uint64(len(params)), gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return sizedBuffer{}, err
	}
	queue.WriteBuffer(buf.Buffer, 0, params)
	return buf, nil
}

// staging creates a mappable readback buffer.
func (r *dispatchResources) staging(label string, size uint64) (sizedBuffer, error) {
	return r.buffer(label, size, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst)
}

// bindGroup binds bufs to consecutive bindings starting at 0.
func (r *dispatchResources) bindGroup(label string, layout hal.BindGroupLayout, bufs ...sizedBuffer) (hal.BindGroup, error) {
	entries := make([]gputypes.BindGroupEntry, len(bufs))
	for i, b := range bufs {
		entries[i] = gputypes.BindGroupEntry{
			Binding:  uint32(i), //nolint:gosec // at most four bindings
			Resource: gputypes.BufferBinding{Buffer: b.NativeHandle(), Offset: 0, Size: b.size},
		}
	}
	bg, err := r.device.CreateBindGroup(&hal.BindGroupDescriptor{Label: label, Layout: layout, Entries: entries})
	if err != nil {
		slogger().Warn("gpu: bind group creation failed", "label", label, "err", err)
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	r.bindGroups = append(r.bindGroups, bg)
	return bg, nil
}

// pass is one compute pass: a pipeline, its bind groups in group order and
// the workgroup counts.
type pass struct {
	kernel  Kernel
	groups  []hal.BindGroup
	x, y, z uint32
}

// readback copies src into the staging buffer dst after all passes ran.
type readback struct {
	src, dst sizedBuffer
}

// execute records passes into one command encoder, copies the result into
// the staging buffer and waits for the GPU. out receives the staging
// contents only when everything succeeded.
func (a *Accelerator) execute(ctx context.Context, res *dispatchResources, label string, passes []pass, rb readback, out []byte) error {
	encoder, err := a.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	for _, p := range passes {
		cp := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: p.kernel.String()})
		cp.SetPipeline(a.pipes.compute[p.kernel])
		for i, g := range p.groups {
			cp.SetBindGroup(uint32(i), g, nil) //nolint:gosec // at most two groups
		}
		cp.Dispatch(p.x, max(p.y, 1), max(p.z, 1))
		cp.End()
	}
	encoder.CopyBufferToBuffer(rb.src.Buffer, rb.dst.Buffer, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: rb.src.size},
	})

	if err := ctx.Err(); err != nil {
		encoder.DiscardEncoding()
		return err
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf

	fence, err := a.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	res.fence = fence

	start := time.Now()
	if err := a.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := a.device.Wait(fence, 1, a.timeout)
	if err != nil {
		return fmt.Errorf("wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w after %v", ErrTimeout, a.timeout)
	}
	slogger().Debug("gpu: submission complete",
		"label", label,
		"passes", len(passes),
		"bytes", rb.src.size,
		"elapsed", time.Since(start))

	if err := a.queue.ReadBuffer(rb.dst.Buffer, 0, out); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	return nil
}
