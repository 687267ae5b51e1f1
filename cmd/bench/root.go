package bench

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"reflect"
	"strconv"
	"strings"
	"testing"
	"time"

	vmetrics "github.com/VictoriaMetrics/metrics"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/structwire/structwire/cmd/util"
	"github.com/structwire/structwire/lib/codec"
	"go.uber.org/zap"
)

var (
	// BenchCmd represents the bench command
	BenchCmd = &cobra.Command{
		Use:     "bench",
		Short:   "Benchmark the compiled codec against baseline encoders",
		Long:    "",
		RunE:    run,
		PreRunE: processBenchConfig,
	}
	benchNumThreads  = 10
	benchNumMessages = 100
	benchPayloadSize = 64
	benchSkip        = make([]string, 0)
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// add flags
	key := "skip"
	BenchCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. serialize,decode)"))
	key = "threads"
	BenchCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "messages"
	BenchCmd.Flags().Int(key, 100, util.WrapString("How many different messages to generate for the benchmark"))
	key = "payload-size"
	BenchCmd.Flags().Int(key, 64, util.WrapString("Size of the string payload per message (in bytes)"))
	key = "csv"
	BenchCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
	key = "show-metrics"
	BenchCmd.Flags().Bool(key, false, util.WrapString("Dump internal codec metrics in Prometheus format after the run"))
}

func processBenchConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	benchNumThreads = viper.GetInt("threads")
	benchNumMessages = viper.GetInt("messages")
	benchPayloadSize = viper.GetInt("payload-size")
	benchSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

// --------------------------------------------------------------------------
// Benchmark Message
// --------------------------------------------------------------------------

// record is the message shape used for all benchmarks. It mixes fixed-width
// scalars, variable-length payloads and nullable members.
type record struct {
	ID      int64
	Kind    uint16
	Score   float64
	Name    string
	Payload []byte
	Boost   *int32
	Label   *string
}

func recordSchema() codec.Schema {
	return codec.Schema{
		Members: []codec.MemberDecl{
			{Name: "ID"},
			{Name: "Kind"},
			{Name: "Score"},
			{Name: "Name"},
			{Name: "Payload"},
			{Name: "Boost", Nullable: true},
			{Name: "Label", Nullable: true},
		},
	}
}

// makeRecords generates a deterministic corpus; roughly half the records
// carry their nullable members
func makeRecords(count, payloadSize int) []record {
	rng := rand.New(rand.NewSource(42))
	records := make([]record, count)

	for i := range records {
		payload := make([]byte, payloadSize)
		rng.Read(payload)

		records[i] = record{
			ID:      rng.Int63(),
			Kind:    uint16(rng.Intn(1 << 16)),
			Score:   rng.Float64(),
			Name:    fmt.Sprintf("record-%d", i),
			Payload: payload,
		}

		if i%2 == 0 {
			boost := rng.Int31()
			label := fmt.Sprintf("label-%d", i)
			records[i].Boost = &boost
			records[i].Label = &label
		}
	}

	return records
}

// --------------------------------------------------------------------------
// Command
// --------------------------------------------------------------------------

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Benchmark tool for the structwire codec")

	logger, err := util.GetLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	baseline, err := util.GetEncoder()
	if err != nil {
		return err
	}
	baselineName := viper.GetString("encoder")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Printf("Baseline encoder: %s\n", baselineName)
	fmt.Printf("Threads: %d\n", benchNumThreads)
	fmt.Printf("Messages: %d\n", benchNumMessages)
	fmt.Printf("Payload size: %dB\n", benchPayloadSize)
	fmt.Println()

	// Compile the record schema once
	serializer := codec.NewStructSerializerWithOptions(codec.Options{Logger: logger})
	recordType := reflect.TypeOf(record{})
	if err := serializer.Map(recordType, recordSchema()); err != nil {
		return fmt.Errorf("failed to map record schema: %v", err)
	}

	records := makeRecords(benchNumMessages, benchPayloadSize)
	logger.Info("benchmark corpus generated",
		zap.Int("messages", benchNumMessages),
		zap.Int("payloadSize", benchPayloadSize),
	)

	// Pre-serialize the corpus for the decode benchmarks and collect wire
	// sizes along the way
	codecSizes := gometrics.NewHistogram(gometrics.NewUniformSample(benchNumMessages))
	baselineSizes := gometrics.NewHistogram(gometrics.NewUniformSample(benchNumMessages))

	codecBufs := make([][]byte, len(records))
	baselineBufs := make([][]byte, len(records))
	maxWireSize := 0
	for i, rec := range records {
		size, err := serializer.GetSizeFromValue(rec)
		if err != nil {
			return fmt.Errorf("failed to size record %d: %v", i, err)
		}
		buf := make([]byte, size)
		if _, err := serializer.Serialize(rec, buf, 0); err != nil {
			return fmt.Errorf("failed to serialize record %d: %v", i, err)
		}
		codecBufs[i] = buf
		codecSizes.Update(int64(size))
		if size > maxWireSize {
			maxWireSize = size
		}

		data, err := baseline.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode record %d: %v", i, err)
		}
		baselineBufs[i] = data
		baselineSizes.Update(int64(len(data)))
	}

	printSizeHistogram("codec", codecSizes)
	printSizeHistogram(baselineName, baselineSizes)
	fmt.Println()

	fmt.Println("starting benchmarks...")

	// Create results map
	results := make(map[string]testing.BenchmarkResult)

	serializeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("serialize") {
			return
		}

		b.SetParallelism(benchNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			buf := make([]byte, maxWireSize)
			counter := 0
			for pb.Next() {
				rec := records[counter%len(records)]
				if _, err := serializer.Serialize(rec, buf, 0); err != nil {
					b.Errorf("(serialize) - error serializing record: %v", err)
				}
				counter++
			}
		})
	})

	results["serialize"] = serializeResult
	printResult("serialize", serializeResult)

	deserializeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("deserialize") {
			return
		}

		b.SetParallelism(benchNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				buf := codecBufs[counter%len(codecBufs)]
				if _, _, err := serializer.Deserialize(recordType, buf, 0); err != nil {
					b.Errorf("(deserialize) - error deserializing record: %v", err)
				}
				counter++
			}
		})
	})

	results["deserialize"] = deserializeResult
	printResult("deserialize", deserializeResult)

	sizeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("size") {
			return
		}

		b.SetParallelism(benchNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				rec := records[counter%len(records)]
				if _, err := serializer.GetSizeFromValue(rec); err != nil {
					b.Errorf("(size) - error sizing record: %v", err)
				}
				counter++
			}
		})
	})

	results["size"] = sizeResult
	printResult("size", sizeResult)

	encodeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("encode") {
			return
		}

		b.SetParallelism(benchNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				rec := records[counter%len(records)]
				if _, err := baseline.Marshal(rec); err != nil {
					b.Errorf("(encode) - error encoding record: %v", err)
				}
				counter++
			}
		})
	})

	results["encode"] = encodeResult
	printResult("encode", encodeResult)

	decodeResult := testing.Benchmark(func(b *testing.B) {
		if shouldSkip("decode") {
			return
		}

		b.SetParallelism(benchNumThreads)
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			counter := 0
			for pb.Next() {
				data := baselineBufs[counter%len(baselineBufs)]
				var rec record
				if err := baseline.Unmarshal(data, &rec); err != nil {
					b.Errorf("(decode) - error decoding record: %v", err)
				}
				counter++
			}
		})
	})

	results["decode"] = decodeResult
	printResult("decode", decodeResult)

	// Write results to csv is specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results, baselineName); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	// Dump internal counters if requested
	if viper.GetBool("show-metrics") {
		fmt.Println()
		vmetrics.WritePrometheus(os.Stdout, false)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range benchSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// printSizeHistogram prints the wire-size distribution of a format
func printSizeHistogram(name string, h gometrics.Histogram) {
	snapshot := h.Snapshot()
	stats := NewStats(float64Slice(snapshot))

	fmt.Printf("%-10swire size: mean %.0fB, min %.0fB, max %.0fB, stddev %.1fB, p95 %.0fB\n",
		name, stats.Mean, stats.Min, stats.Max, stats.StdDeviation, snapshot.Percentile(0.95))
}

// float64Slice converts a histogram snapshot's samples to float64 values
func float64Slice(h gometrics.Histogram) []float64 {
	samples := h.Sample().Values()
	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = float64(s)
	}
	return values
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, result testing.BenchmarkResult) {
	if result.NsPerOp() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	nsPerOp := math.Max(float64(result.NsPerOp()), 1) // prevent division by zero
	opsPerSec := 1.0 / (nsPerOp / 1e9)

	// Print the formatted result
	fmt.Printf("%-20s%.0fns/op (%s/op)\t%.0f ops/sec\n", test, nsPerOp, time.Duration(nsPerOp), opsPerSec)
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]testing.BenchmarkResult, baselineName string) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Test", "NsPerOp", "DurationPerOp", "OpsPerSec", "Skipped",
		"Encoder", "Threads", "Messages", "PayloadSizeB",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, result := range results {
		var nsPerOp float64
		var opsPerSec float64
		var skipped string

		if result.NsPerOp() == 0 {
			skipped = "true"
			nsPerOp = 0
			opsPerSec = 0
		} else {
			skipped = "false"
			nsPerOp = math.Max(float64(result.NsPerOp()), 1)
			opsPerSec = 1.0 / (nsPerOp / 1e9)
		}

		row := []string{
			test,
			fmt.Sprintf("%.0f", nsPerOp),
			time.Duration(nsPerOp).String(),
			fmt.Sprintf("%.0f", opsPerSec),
			skipped,
			baselineName,
			strconv.Itoa(benchNumThreads),
			strconv.Itoa(benchNumMessages),
			strconv.Itoa(benchPayloadSize),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}
