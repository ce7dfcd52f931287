// Copyright 2022 The StarRocks Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// agg-bench runs one blocking aggregation stage end to end: it loads
// key/value rows from csv or fabricates them, feeds them through the
// scheduler's pipelines and prints grouped results with timings.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fagongzi/util/format"

	"github.com/dupen01/starrocks/pkg/common/mpool"
	"github.com/dupen01/starrocks/pkg/common/srerr"
	"github.com/dupen01/starrocks/pkg/config"
	"github.com/dupen01/starrocks/pkg/container/chunk"
	"github.com/dupen01/starrocks/pkg/container/types"
	"github.com/dupen01/starrocks/pkg/container/vector"
	"github.com/dupen01/starrocks/pkg/logutil"
	"github.com/dupen01/starrocks/pkg/sql/colexec/aggexec"
	"github.com/dupen01/starrocks/pkg/sql/colexec/aggregate"
	"github.com/dupen01/starrocks/pkg/sql/colexec/chunkio"
	"github.com/dupen01/starrocks/pkg/sql/colexec/expression"
	"github.com/dupen01/starrocks/pkg/vm/pipeline"
	"github.com/dupen01/starrocks/pkg/vm/process"
)

var (
	configFile = flag.String("config", "", "engine configuration file")
	inputFile  = flag.String("input", "", "csv input file; synthetic rows when empty")
	rowCount   = flag.Int("rows", 1000000, "synthetic row count")
	groupCount = flag.Int("groups", 1024, "synthetic distinct group keys")
	keyCol     = flag.Int("key-col", 0, "csv column of the group key")
	valCol     = flag.Int("val-col", 1, "csv column of the aggregated value")
	aggName    = flag.String("agg", "sum", "aggregate function over the value column")
	printMax   = flag.Int("print", 10, "result groups to print")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func aggOpByName(name string) (int, error) {
	for op, n := range aggexec.Names {
		if n == name {
			return op, nil
		}
	}
	return 0, srerr.NewInvalidInputNoCtx("unknown aggregate %s", name)
}

func run() error {
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		return err
	}
	logutil.SetupLogger(&cfg.Log)

	aggOp, err := aggOpByName(*aggName)
	if err != nil {
		return err
	}

	mp, err := mpool.NewMPool("agg-bench", cfg.MemoryLimit)
	if err != nil {
		return err
	}
	defer mpool.DeleteMPool(mp)
	proc := process.New(context.Background(), mp)
	defer proc.Cancel()
	proc.SetQueryId(fmt.Sprintf("agg-bench-%d", os.Getpid()))
	proc.SetChunkSize(cfg.ChunkSize)

	loadStart := time.Now()
	var chunks []*chunk.Chunk
	var total int
	if *inputFile != "" {
		chunks, total, err = loadCSV(proc, *inputFile, *keyCol, *valCol)
	} else {
		chunks, total, err = loadSynthetic(proc, *rowCount, *groupCount)
	}
	if err != nil {
		return err
	}
	logutil.Infof("loaded %d rows in %d chunks (%s)", total, len(chunks), time.Since(loadStart))

	spec := aggregate.AggregatorSpec{
		GroupExprs: []expression.ExpressionExecutor{
			expression.NewColumnExpressionExecutor(0, types.T_int64.ToType()),
		},
		AggCalls: []aggregate.AggCall{
			{Op: aggOp, Expr: expression.NewColumnExpressionExecutor(1, types.T_int64.ToType())},
		},
	}
	aggr, err := aggregate.NewAggregator(spec, mp)
	if err != nil {
		cleanChunks(chunks, mp)
		return err
	}
	feed := pipeline.New(proc, chunkio.NewChunkSource(chunks), aggregate.NewAggregateSinkOperator(aggr))
	out := chunkio.NewChunkSink()
	drain := pipeline.New(proc, aggregate.NewAggregateBlockingSourceOperator(aggr), out)
	closePipes := func() {
		if err := feed.Close(); err != nil {
			logutil.Errorf("close %s: %v", feed, err)
		}
		if err := drain.Close(); err != nil {
			logutil.Errorf("close %s: %v", drain, err)
		}
	}

	sched, err := pipeline.NewScheduler(cfg.Workers, cfg.ReadyQueueSize)
	if err != nil {
		closePipes()
		return err
	}
	runStart := time.Now()
	if err := sched.Spawn(drain, feed); err != nil {
		sched.Stop()
		closePipes()
		return err
	}
	werr := sched.Wait()
	elapsed := time.Since(runStart)
	sched.Stop()
	if werr != nil {
		closePipes()
		return werr
	}

	results := out.TakeChunks()
	groupTotal := 0
	printed := 0
	for _, chk := range results {
		keys := vector.MustFixedCol[int64](chk.Vecs[0])
		groupTotal += len(keys)
		for i := range keys {
			if printed >= *printMax {
				break
			}
			fmt.Printf("%s: key %s -> %s\n", *aggName, format.Int64ToString(keys[i]), formatCell(chk.Vecs[1], i))
			printed++
		}
	}
	cleanChunks(results, mp)
	closePipes()

	if elapsed <= 0 {
		elapsed = time.Nanosecond
	}
	logutil.Infof("aggregated %d rows into %d groups in %s (%.0f rows/s, %d rows returned)",
		total, groupTotal, elapsed, float64(total)/elapsed.Seconds(), proc.RowsReturned())
	if rss, ok := peakRSSBytes(); ok {
		logutil.Infof("peak rss %d MB", rss>>20)
	}
	if leak := mp.CurrNB(); leak != 0 {
		logutil.Warnf("pool %s still holds %d bytes", mp.Tag(), leak)
	}
	return nil
}

func formatCell(vec *vector.Vector, row int) string {
	switch vec.GetType().Oid {
	case types.T_int64:
		return format.Int64ToString(vector.MustFixedCol[int64](vec)[row])
	case types.T_uint64:
		return string(format.UInt64ToString(vector.MustFixedCol[uint64](vec)[row]))
	case types.T_float64:
		return strconv.FormatFloat(vector.MustFixedCol[float64](vec)[row], 'f', 6, 64)
	default:
		return "?"
	}
}
