package bitonic

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/gogpu/compute/internal/parallel"
)

func randomData(n int, seed uint64) []uint32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	data := make([]uint32, n)
	for i := range data {
		data[i] = rng.Uint32N(4096)
	}
	return data
}

func TestSchedule(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		groupSize int
		want      []Step
	}{
		{"empty", 0, 4, nil},
		{"single", 1, 4, nil},
		{"fits one group", 4, 4, nil},
		{"smaller than group", 2, 1024, nil},
		{
			name: "two groups", n: 8, groupSize: 4,
			want: []Step{{8, 4}, {8, 2}, {8, 1}},
		},
		{
			name: "four groups", n: 16, groupSize: 4,
			want: []Step{{8, 4}, {8, 2}, {8, 1}, {16, 8}, {16, 4}, {16, 2}, {16, 1}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Schedule(tt.n, tt.groupSize)
			if err != nil {
				t.Fatalf("Schedule(%d, %d) error: %v", tt.n, tt.groupSize, err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("Schedule(%d, %d) = %v, want %v", tt.n, tt.groupSize, got, tt.want)
			}
		})
	}
}

func TestScheduleStepCount(t *testing.T) {
	// log2(n/g) merge stages, stage s has log2(g)+s steps.
	const g = 1024
	for shift := 1; shift <= 11; shift++ {
		n := g << shift
		sched, err := Schedule(n, g)
		if err != nil {
			t.Fatal(err)
		}
		want := 0
		for s := 1; s <= shift; s++ {
			want += 10 + s
		}
		if len(sched) != want {
			t.Errorf("n=%d: %d steps, want %d", n, len(sched), want)
		}
	}
}

func TestScheduleErrors(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		groupSize int
		want      error
	}{
		{"length not power of two", 12, 4, ErrNotPowerOfTwo},
		{"group not power of two", 16, 3, ErrGroupSize},
		{"zero group", 16, 0, ErrGroupSize},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Schedule(tt.n, tt.groupSize)
			if !errors.Is(err, tt.want) {
				t.Errorf("Schedule(%d, %d) error = %v, want %v", tt.n, tt.groupSize, err, tt.want)
			}
		})
	}
}

func TestLocalSortAlternatesBlocks(t *testing.T) {
	const gs = 8
	data := randomData(4*gs, 1)

	if err := LocalSort(data, gs, nil); err != nil {
		t.Fatal(err)
	}

	for b := 0; b < 4; b++ {
		block := data[b*gs : (b+1)*gs]
		for i := 1; i < gs; i++ {
			ascending := b%2 == 0
			if ascending && block[i-1] > block[i] {
				t.Fatalf("block %d not ascending: %v", b, block)
			}
			if !ascending && block[i-1] < block[i] {
				t.Fatalf("block %d not descending: %v", b, block)
			}
		}
	}
}

func TestLocalSortSingleGroupSorts(t *testing.T) {
	data := randomData(512, 2)
	if err := LocalSort(data, 1024, nil); err != nil {
		t.Fatal(err)
	}
	if !slices.IsSorted(data) {
		t.Error("LocalSort with a group covering all elements should sort")
	}
}

func TestSort(t *testing.T) {
	pool := parallel.NewWorkerPool(4)
	defer pool.Close()

	for _, tt := range []struct {
		n, groupSize int
	}{
		{0, 1024}, {1, 1024}, {2, 1024}, {64, 8}, {1024, 1024},
		{4096, 1024}, {1 << 15, 256}, {1 << 17, 1024},
	} {
		original := randomData(tt.n, uint64(tt.n))
		data := slices.Clone(original)

		if err := Sort(data, tt.groupSize, pool); err != nil {
			t.Fatalf("Sort(n=%d, g=%d): %v", tt.n, tt.groupSize, err)
		}
		if !slices.IsSorted(data) {
			t.Errorf("Sort(n=%d, g=%d) output not sorted", tt.n, tt.groupSize)
		}

		want := slices.Clone(original)
		slices.Sort(want)
		if !slices.Equal(data, want) {
			t.Errorf("Sort(n=%d, g=%d) output is not a permutation of the input", tt.n, tt.groupSize)
		}
	}
}

func TestSortEdgeValues(t *testing.T) {
	data := []uint32{0xFFFFFFFF, 0, 7, 7, 0xFFFFFFFF, 1, 0, 3}
	if err := Sort(data, 4, nil); err != nil {
		t.Fatal(err)
	}
	want := []uint32{0, 0, 1, 3, 7, 7, 0xFFFFFFFF, 0xFFFFFFFF}
	if !slices.Equal(data, want) {
		t.Errorf("Sort = %v, want %v", data, want)
	}
}

func TestSortRejectsOddLength(t *testing.T) {
	data := []uint32{3, 2, 1}
	if err := Sort(data, 4, nil); !errors.Is(err, ErrNotPowerOfTwo) {
		t.Errorf("Sort error = %v, want ErrNotPowerOfTwo", err)
	}
	if !slices.Equal(data, []uint32{3, 2, 1}) {
		t.Error("rejected input must be left untouched")
	}
}

func TestTrace(t *testing.T) {
	data := randomData(64, 3)
	network, _ := Network(64)

	calls := 0
	err := Trace(data, func(index int, step Step, snapshot []uint32) {
		if step != network[index] {
			t.Errorf("step %d = %v, want %v", index, step, network[index])
		}
		calls++
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != len(network) {
		t.Errorf("callback called %d times, want %d", calls, len(network))
	}
	if !slices.IsSorted(data) {
		t.Error("Trace should leave data sorted")
	}
}

func TestNetworkMatchesTwoKernelSplit(t *testing.T) {
	// The full network equals LocalSort + Schedule for every group size.
	original := randomData(256, 4)
	for _, gs := range []int{2, 16, 128, 256} {
		a := slices.Clone(original)
		b := slices.Clone(original)
		if err := Sort(a, gs, nil); err != nil {
			t.Fatal(err)
		}
		if err := Trace(b, nil); err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(a, b) {
			t.Errorf("group size %d: two-kernel result differs from full network", gs)
		}
	}
}

func BenchmarkSort(b *testing.B) {
	original := randomData(1<<17, 5)
	data := make([]uint32, len(original))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(data, original)
		_ = Sort(data, 1024, nil)
	}
}
