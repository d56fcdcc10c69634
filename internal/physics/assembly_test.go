package physics_test

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/physlab/internal/dynamo"
	"github.com/san-kum/physlab/internal/physics"
)

const tol = 1e-9

func slot(i int) physics.PointMass {
	return physics.NewPointMassAt(2.0, float64(i)*math.Pi/2, 30)
}

type staticScenarios map[int][]physics.PointMass

func (s staticScenarios) Scenario(i int) []physics.PointMass { return s[i] }

var _ = Describe("Assembly", func() {
	var asm *physics.Assembly

	BeforeEach(func() {
		asm = physics.NewAssembly(physics.DefaultBaseInertia)
	})

	Describe("inertia tensor", func() {
		It("reduces to the base inertia with no masses", func() {
			in, com := asm.InertiaTensor()
			Expect(in).To(Equal(physics.Inertia{Ixx: 15, Iyy: 15, Izz: 15}))
			Expect(com).To(Equal(mgl64.Vec3{}))
		})

		It("accumulates point masses per axis", func() {
			asm.LoadScenario([]physics.PointMass{
				{Position: mgl64.Vec3{2, 0, 0}, Mass: 30},
				{Position: mgl64.Vec3{-1, 0, 3}, Mass: 10},
			})
			in, com := asm.InertiaTensor()
			Expect(in.Ixx).To(BeNumerically("~", 15+10*9, tol))
			Expect(in.Iyy).To(BeNumerically("~", 15+30*4+10*10, tol))
			Expect(in.Izz).To(BeNumerically("~", 15+30*4+10*1, tol))
			Expect(com.X()).To(BeNumerically("~", (60.0-10)/40, tol))
			Expect(com.Z()).To(BeNumerically("~", 30.0/40, tol))

			x := asm.State()
			Expect(mgl64.Vec3{
				x[dynamo.Index(asm.Labels(), "ixx")],
				x[dynamo.Index(asm.Labels(), "iyy")],
				x[dynamo.Index(asm.Labels(), "izz")],
			}).To(Equal(in.Vec()))
		})

		It("never decreases when masses are added", func() {
			var masses []physics.PointMass
			prev, _ := asm.InertiaTensor()
			for i := 0; i < 4; i++ {
				masses = append(masses, slot(i))
				asm.LoadScenario(masses)
				in, _ := asm.InertiaTensor()
				Expect(in.Ixx).To(BeNumerically(">=", prev.Ixx))
				Expect(in.Iyy).To(BeNumerically(">=", prev.Iyy))
				Expect(in.Izz).To(BeNumerically(">=", prev.Izz))
				Expect(in.Iyy).To(BeNumerically(">=", asm.BaseInertia))
				prev = in
			}
		})
	})

	Describe("conservation of angular momentum", func() {
		BeforeEach(func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(2)})
			asm.StartRotation(mgl64.Vec3{0, 5, 0})
		})

		It("fixes L at spin-up from the tensor", func() {
			in, _ := asm.InertiaTensor()
			Expect(asm.IsRotating()).To(BeTrue())
			Expect(asm.AngularMomentum().Y()).To(BeNumerically("~", in.Iyy*5, tol))
			Expect(asm.AngularVelocity()).To(Equal(mgl64.Vec3{0, 5, 0}))
		})

		It("keeps omega equal to L/I while masses are static", func() {
			for i := 0; i < 200; i++ {
				asm.Step(0.02)
				in, _ := asm.InertiaTensor()
				w := asm.AngularVelocity()
				Expect(w.Y()).To(BeNumerically("~", asm.AngularMomentum().Y()/in.Iyy, 1e-6))
				Expect(math.Abs(w.X())).To(BeNumerically("<", 1e-6))
				Expect(math.Abs(w.Z())).To(BeNumerically("<", 1e-6))
			}
		})

		It("slows down when a mass moves outward", func() {
			asm.Step(0.02)
			before := asm.AngularVelocity().Y()

			Expect(asm.MoveMassRadially(0, 0.5)).To(Succeed())
			asm.Step(0.02)

			in, _ := asm.InertiaTensor()
			Expect(in.Iyy).To(BeNumerically("~", 15+30*2.2*2.2+30*4, 1e-9))
			Expect(asm.AngularVelocity().Y()).To(BeNumerically("<", before))
			Expect(asm.AngularVelocity().Y()).To(BeNumerically("~", asm.AngularMomentum().Y()/in.Iyy, 1e-6))
		})
	})

	Describe("unbalanced configuration", func() {
		It("wobbles within the tilt clamp when the center of mass is off axis", func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(1), slot(2)})
			_, com := asm.InertiaTensor()
			Expect(com.X()*com.X() + com.Z()*com.Z()).To(BeNumerically(">", 5e-4))

			asm.StartRotation(mgl64.Vec3{0, 5, 0})
			tilted := false
			for i := 0; i < 500; i++ {
				asm.Step(0.02)
				w := asm.AngularVelocity()
				Expect(math.Abs(w.X())).To(BeNumerically("<=", physics.MaxTilt+tol))
				Expect(math.Abs(w.Z())).To(BeNumerically("<=", physics.MaxTilt+tol))
				if math.Abs(w.X()) > 1e-6 || math.Abs(w.Z()) > 1e-6 {
					tilted = true
				}
			}
			Expect(tilted).To(BeTrue())
			Expect(asm.State().IsValid()).To(BeTrue())
		})

		It("applies one damped precession kick from the offset and L", func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(1), slot(2)})
			asm.StartRotation(mgl64.Vec3{0, 5, 0})
			asm.Step(0.02)

			// COM (0, 0, 2/3), L = (0, 375·5, 0): torque = COM × L = (-1250, 0, 0),
			// divided by Ixx = 135, times dt, intensity 0.2, damping 0.95
			w := asm.AngularVelocity()
			Expect(w.X()).To(BeNumerically("~", -1250.0/135*0.02*0.2*0.95, 1e-9))
			Expect(w.Y()).To(BeNumerically("~", 5, 1e-9))
			Expect(w.Z()).To(BeNumerically("~", 0, 1e-9))
		})

		It("crosses the offset with L as stored once the platform has turned", func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(1), slot(2)})
			asm.StartRotation(mgl64.Vec3{0, 5, 0})
			for i := 0; i < 20; i++ {
				asm.Step(0.02)
			}

			const dt = 0.02
			q, l := asm.Orientation(), asm.AngularMomentum()
			in, com := asm.InertiaTensor()
			lb := q.Inverse().Rotate(l)
			w := q.Rotate(mgl64.Vec3{lb.X() / in.Ixx, lb.Y() / in.Iyy, lb.Z() / in.Izz})
			torque := mgl64.Vec3{com.X(), 0, com.Z()}.Cross(l)
			kick := q.Rotate(mgl64.Vec3{torque.X() / in.Ixx, torque.Y() / in.Iyy, torque.Z() / in.Izz}.Mul(dt)).Mul(0.2)
			wantX := mgl64.Clamp((w.X()+kick.X())*0.95, -physics.MaxTilt, physics.MaxTilt)
			wantZ := mgl64.Clamp((w.Z()+kick.Z())*0.95, -physics.MaxTilt, physics.MaxTilt)

			asm.Step(dt)
			Expect(asm.AngularVelocity().X()).To(BeNumerically("~", wantX, 1e-9))
			Expect(asm.AngularVelocity().Z()).To(BeNumerically("~", wantZ, 1e-9))
		})

		It("stays upright when three masses balance", func() {
			third := 2 * math.Pi / 3
			asm.LoadScenario([]physics.PointMass{
				physics.NewPointMassAt(2, 0, 30),
				physics.NewPointMassAt(2, third, 30),
				physics.NewPointMassAt(2, 2*third, 30),
			})
			asm.StartRotation(mgl64.Vec3{0, 5, 0})
			for i := 0; i < 100; i++ {
				asm.Step(0.02)
			}
			w := asm.AngularVelocity()
			Expect(w.Y()).To(BeNumerically("~", 5, 1e-6))
			Expect(math.Abs(w.X())).To(BeNumerically("<", 1e-6))
			Expect(asm.Tilt()).To(BeNumerically("<", 1e-6))
		})

		It("ignores the precession branch for four masses", func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(1), slot(2), {Position: mgl64.Vec3{0, 0, -1.5}, Mass: 30}})
			asm.StartRotation(mgl64.Vec3{0, 5, 0})
			asm.Step(0.02)
			Expect(asm.AngularVelocity().X()).To(BeNumerically("~", 0, tol))
			Expect(asm.AngularVelocity().Z()).To(BeNumerically("~", 0, tol))
		})
	})

	Describe("guards", func() {
		It("yields zero angular velocity when the tensor vanishes", func() {
			asm = physics.NewAssembly(0)
			asm.LoadScenario(nil)
			asm.StartRotation(mgl64.Vec3{0, 5, 0})
			asm.Step(0.02)
			Expect(asm.AngularVelocity()).To(Equal(mgl64.Vec3{}))
			Expect(asm.State().IsValid()).To(BeTrue())
		})

		It("does nothing when stepped at rest", func() {
			asm.LoadScenario([]physics.PointMass{slot(0)})
			asm.Step(0.02)
			Expect(asm.AngularVelocity()).To(Equal(mgl64.Vec3{}))
			Expect(asm.Orientation()).To(Equal(mgl64.QuatIdent()))
		})

		It("rejects unknown mass indices", func() {
			asm.LoadScenario([]physics.PointMass{slot(0)})
			Expect(asm.MoveMassRadially(3, 0.1)).To(MatchError(dynamo.ErrIndexOutOfRange))
			Expect(asm.SelectMass(-1)).To(MatchError(dynamo.ErrIndexOutOfRange))
		})
	})

	Describe("stop and reload", func() {
		BeforeEach(func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(1), slot(2)})
			asm.ToggleRotation()
			for i := 0; i < 50; i++ {
				asm.Step(0.02)
			}
		})

		It("zeroes motion on stop", func() {
			asm.ToggleRotation()
			Expect(asm.IsRotating()).To(BeFalse())
			Expect(asm.AngularVelocity()).To(Equal(mgl64.Vec3{}))
			Expect(asm.AngularMomentum()).To(Equal(mgl64.Vec3{}))
		})

		It("restores identity orientation on scenario reload", func() {
			Expect(asm.Orientation()).NotTo(Equal(mgl64.QuatIdent()))
			asm.LoadScenario([]physics.PointMass{slot(0), slot(2)})
			Expect(asm.IsRotating()).To(BeFalse())
			Expect(asm.Orientation()).To(Equal(mgl64.QuatIdent()))
			Expect(asm.Snapshot().MassCount).To(Equal(2))
		})

		It("restores the loaded radii on reset", func() {
			Expect(asm.MoveMassRadially(1, 1)).To(Succeed())
			asm.Reset()
			Expect(asm.Masses()[1].Radius()).To(BeNumerically("~", 2.0, tol))
		})
	})

	Describe("parameters", func() {
		It("exposes one clamped radius per mass", func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(1)})
			Expect(asm.GetParams()).To(HaveKeyWithValue("r1", BeNumerically("~", 2.0, tol)))
			Expect(asm.GetParams()).NotTo(HaveKey("r2"))

			Expect(asm.SetParam("r1", 1.7)).To(Succeed())
			Expect(asm.Masses()[1].Radius()).To(BeNumerically("~", 1.7, tol))
			Expect(asm.SetParam("r0", 9)).To(Succeed())
			Expect(asm.Masses()[0].Radius()).To(BeNumerically("~", physics.MaxRadius, tol))

			Expect(asm.SetParam("r2", 2)).To(MatchError(dynamo.ErrIndexOutOfRange))
			Expect(asm.SetParam("r1x", 2)).To(MatchError(dynamo.ErrUnknownParam))
			Expect(asm.SetParam("base_inertia", -1)).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("re-fixes L when the spin rate or base inertia changes mid-spin", func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(2)})
			Expect(asm.SetParam("spin_rate", 8)).To(Succeed())
			Expect(asm.IsRotating()).To(BeFalse())

			asm.ToggleRotation()
			Expect(asm.AngularVelocity().Y()).To(BeNumerically("~", 8, tol))

			Expect(asm.SetParam("spin_rate", 10)).To(Succeed())
			asm.Step(0.02)
			Expect(asm.AngularVelocity().Y()).To(BeNumerically("~", 10, 1e-9))
			Expect(asm.AngularMomentum().Y()).To(BeNumerically("~", (15+2*30*4)*10.0, 1e-9))

			Expect(asm.SetParam("base_inertia", 45)).To(Succeed())
			asm.Step(0.02)
			Expect(asm.AngularVelocity().Y()).To(BeNumerically("~", 10, 1e-9))
			Expect(asm.AngularMomentum().Y()).To(BeNumerically("~", (45+2*30*4)*10.0, 1e-9))
		})
	})

	Describe("selection", func() {
		It("wraps in both directions", func() {
			asm.LoadScenario([]physics.PointMass{slot(0), slot(1), slot(2)})
			asm.SelectPrev()
			Expect(asm.Selected()).To(Equal(2))
			asm.SelectNext()
			Expect(asm.Selected()).To(Equal(0))
			Expect(asm.SelectMass(1)).To(Succeed())
			asm.MoveSelected(10)
			Expect(asm.Masses()[1].Radius()).To(BeNumerically("~", physics.MaxRadius, tol))
		})
	})
})

var _ = Describe("PointMass", func() {
	It("clamps radial moves and keeps the angle", func() {
		pm := physics.NewPointMassAt(2, 0.7, 30)
		for i := 0; i < 5; i++ {
			pm.MoveRadially(100)
			Expect(pm.Radius()).To(BeNumerically("~", physics.MaxRadius, tol))
		}
		Expect(pm.Angle()).To(BeNumerically("~", 0.7, tol))

		for i := 0; i < 5; i++ {
			pm.MoveRadially(-100)
			Expect(pm.Radius()).To(BeNumerically("~", physics.MinRadius, tol))
		}
		Expect(pm.Angle()).To(BeNumerically("~", 0.7, tol))
	})
})

var _ = Describe("ScenarioBook", func() {
	It("walks a bounded range and loads empty scenarios", func() {
		src := staticScenarios{
			1: {slot(0), slot(2)},
			2: {slot(0), slot(1), slot(2), slot(3)},
			3: {slot(0), slot(1), slot(2)},
		}
		asm := physics.NewAssembly(physics.DefaultBaseInertia)
		book := physics.NewScenarioBook(src, asm, 1, 3)
		book.Load(1)
		Expect(book.Objective()).To(Equal("balance symmetric masses"))

		Expect(book.Prev()).To(BeFalse())
		Expect(book.Next()).To(BeTrue())
		Expect(book.Next()).To(BeTrue())
		Expect(book.Next()).To(BeFalse())
		Expect(book.Index()).To(Equal(3))
		Expect(asm.Snapshot().MassCount).To(Equal(3))

		book.Load(9)
		in, com := asm.InertiaTensor()
		Expect(asm.Snapshot().MassCount).To(Equal(0))
		Expect(in.Iyy).To(Equal(physics.DefaultBaseInertia))
		Expect(com).To(Equal(mgl64.Vec3{}))
	})
})
