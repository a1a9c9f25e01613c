package canonical

import "testing"

func BenchmarkText(b *testing.B) {
	input, err := Parse([]byte(`{"schema":"bench","nested":{"b":"two","a":"one","n":123},"list":[3,2,1,"x"]}`))
	if err != nil {
		b.Fatalf("parse: %v", err)
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Text(input); err != nil {
			b.Fatalf("text: %v", err)
		}
	}
}
