package physics_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/physics"
)

var _ = Describe("LorentzIntegrator", func() {
	bz := func(b float64) mgl64.Vec3 { return mgl64.Vec3{0, 0, b} }

	DescribeTable("keeps the launch speed in a pure magnetic field",
		func(charge, b float64) {
			p := physics.NewChargedParticle(charge, 1, mgl64.Vec3{5, 0, 0})
			li := physics.LorentzIntegrator{Policy: physics.StabilizeMagneticOnly}
			for i := 0; i < 1000; i++ {
				li.Step(p, bz(b), mgl64.Vec3{}, false, 0.02)
				Expect(p.Speed()).To(BeNumerically("~", 5, physics.SpeedTolerance))
			}
		},
		Entry("unit charge", 1.0, 1.0),
		Entry("negative charge", -2.0, 1.0),
		Entry("strong field", 0.5, 5.0),
	)

	It("bends a positive charge towards -y for v along +x and B along +z", func() {
		p := physics.NewChargedParticle(1, 1, mgl64.Vec3{5, 0, 0})
		physics.LorentzIntegrator{}.Step(p, bz(1), mgl64.Vec3{}, false, 0.01)
		Expect(p.Velocity.Y()).To(BeNumerically("<", 0))
		Expect(p.Position.Y()).To(BeNumerically("<", 0))
	})

	It("lets the electric field change the speed under the default policy", func() {
		p := physics.NewChargedParticle(1, 1, mgl64.Vec3{5, 0, 0})
		li := physics.LorentzIntegrator{}
		for i := 0; i < 50; i++ {
			li.Step(p, mgl64.Vec3{}, mgl64.Vec3{2, 0, 0}, true, 0.02)
		}
		Expect(p.Speed()).To(BeNumerically("~", 5+2*50*0.02, 1e-9))
	})

	It("pins the speed even with E under the always policy", func() {
		p := physics.NewChargedParticle(1, 1, mgl64.Vec3{5, 0, 0})
		li := physics.LorentzIntegrator{Policy: physics.StabilizeAlways}
		for i := 0; i < 50; i++ {
			li.Step(p, bz(1), mgl64.Vec3{2, 0, 0}, true, 0.02)
		}
		Expect(p.Speed()).To(BeNumerically("~", 5, physics.SpeedTolerance))
	})

	It("lets explicit Euler spiral outward without stabilization", func() {
		p := physics.NewChargedParticle(1, 1, mgl64.Vec3{5, 0, 0})
		li := physics.LorentzIntegrator{Policy: physics.StabilizeNever}
		for i := 0; i < 100; i++ {
			li.Step(p, bz(1), mgl64.Vec3{}, false, 0.02)
		}
		Expect(p.Speed()).To(BeNumerically(">", 5.01))
	})

	It("parses policy names", func() {
		for _, pol := range []physics.StabilizationPolicy{
			physics.StabilizeMagneticOnly, physics.StabilizeAlways, physics.StabilizeNever,
		} {
			got, err := physics.ParseStabilization(pol.String())
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(pol))
		}
		_, err := physics.ParseStabilization("sometimes")
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ChargedParticle", func() {
	It("preserves kinetic energy across a mass change", func() {
		p := physics.NewChargedParticle(1, 1, mgl64.Vec3{5, 0, 0})
		Expect(p.SetMass(2)).To(Succeed())
		Expect(p.Speed()).To(BeNumerically("~", 5/math.Sqrt2, 1e-9))
		Expect(p.TargetSpeed).To(BeNumerically("~", 5/math.Sqrt2, 1e-9))
		Expect(p.KineticEnergy()).To(BeNumerically("~", 12.5, 1e-9))
		Expect(p.Velocity.Y()).To(BeZero())
	})

	It("rejects a non-positive mass", func() {
		p := physics.DefaultParticle()
		Expect(p.SetMass(0)).To(MatchError(dynamo.ErrParameterBounds))
		Expect(p.Mass).To(Equal(1.0))
	})

	It("returns to the origin at the launch velocity on reset", func() {
		p := physics.DefaultParticle()
		li := physics.LorentzIntegrator{}
		for i := 0; i < 10; i++ {
			li.Step(p, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{}, false, 0.02)
		}
		p.Reset()
		Expect(p.Position).To(Equal(mgl64.Vec3{}))
		Expect(p.Velocity).To(Equal(mgl64.Vec3{5, 0, 0}))
	})

	It("relaunches at the energy-preserving speed after a mass change", func() {
		p := physics.DefaultParticle()
		Expect(p.SetMass(2)).To(Succeed())
		p.Reset()
		Expect(p.Speed()).To(BeNumerically("~", 5/math.Sqrt2, 1e-9))
	})
})

var _ = Describe("cyclotron diagnostics", func() {
	It("gives a 2π period for unit charge, mass and field", func() {
		Expect(physics.CyclotronPeriod(1, 1, 1)).To(BeNumerically("~", 6.2832, 1e-4))
		Expect(physics.CyclotronRadius(1, 5, 1, 1)).To(BeNumerically("~", 5, 1e-12))
	})

	It("reports sentinels instead of failing for vanishing charge or field", func() {
		Expect(math.IsInf(physics.CyclotronRadius(1, 5, 0, 1), 1)).To(BeTrue())
		Expect(math.IsInf(physics.CyclotronRadius(1, 5, 1, 0), 1)).To(BeTrue())
		Expect(physics.CyclotronPeriod(1, 0, 1)).To(BeZero())
		Expect(physics.CyclotronPeriod(1, 1, 0)).To(BeZero())
	})
})

var _ = Describe("LorentzLab", func() {
	var lab *physics.LorentzLab

	BeforeEach(func() {
		lab = physics.NewLorentzLab(physics.DefaultParticle())
	})

	It("scores a target on the cyclotron orbit", func() {
		// center (0,-5,0), radius 5: the far side of the orbit is (0,-10,0)
		lab.AddTarget(physics.Target{Position: mgl64.Vec3{0, -10, 0}, Radius: 0.5})
		for i := 0; i < 400; i++ {
			lab.Step(0.01)
		}
		Expect(lab.Score()).To(Equal(1))
		Expect(lab.Targets()).To(BeEmpty())

		lab.Reset()
		Expect(lab.Score()).To(BeZero())
		Expect(lab.Targets()).To(HaveLen(1))
	})

	It("exposes diagnostics consistent with the particle", func() {
		d := lab.Diagnostics()
		Expect(d.Speed).To(BeNumerically("~", 5, 1e-12))
		Expect(d.Energy).To(BeNumerically("~", 12.5, 1e-12))
		Expect(d.Radius).To(BeNumerically("~", 5, 1e-12))
		Expect(d.Period).To(BeNumerically("~", 2*math.Pi, 1e-12))
		Expect(lab.State()).To(HaveLen(len(lab.Labels())))
	})

	It("bounds the control ranges", func() {
		Expect(lab.SetCharge(3)).To(MatchError(dynamo.ErrParameterBounds))
		Expect(lab.SetField(0)).To(MatchError(dynamo.ErrParameterBounds))
		Expect(lab.SetMass(5)).To(MatchError(dynamo.ErrParameterBounds))
		Expect(lab.SetParam("field", 2)).To(Succeed())
		Expect(lab.MagneticField()).To(Equal(mgl64.Vec3{0, 0, 2}))
		Expect(lab.SetParam("bogus", 1)).To(MatchError(dynamo.ErrUnknownParam))
	})

	It("switches the electric field on through parameters", func() {
		Expect(lab.SetParam("use_e", 1)).To(Succeed())
		Expect(lab.SetParam("e_y", 1.5)).To(Succeed())
		Expect(lab.UseElectricField).To(BeTrue())
		Expect(lab.GetParams()).To(HaveKeyWithValue("e_y", 1.5))
	})
})
